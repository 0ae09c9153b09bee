package taxonomy

import (
	"errors"
	"testing"

	"github.com/contactkeval/marginrisk/internal/errs"
)

func TestNormalizeExchange(t *testing.T) {
	tests := []struct {
		alias    string
		expected Exchange
	}{
		{"CFE", CFFEX},
		{"CCFX", CFFEX},
		{"cffex", CFFEX},
		{"sh", SSE},
		{"SZSE", SZSE},
		{"shf", SHFE},
		{"dce", DCE},
		{"gfe", GFEX},
	}

	for _, test := range tests {
		actual, err := NormalizeExchange(test.alias)
		if err != nil {
			t.Fatalf("NormalizeExchange(%q): unexpected error: %v", test.alias, err)
		}
		if actual != test.expected {
			t.Fatalf("NormalizeExchange(%q): expected %s, got %s", test.alias, test.expected, actual)
		}
	}
}

func TestNormalizeExchangeUnknown(t *testing.T) {
	_, err := NormalizeExchange("NYSE")
	if !errors.Is(err, errs.ErrUnknownExchange) {
		t.Fatalf("expected ErrUnknownExchange, got %v", err)
	}
}

func TestIsCommodityPair(t *testing.T) {
	tests := []struct {
		ex       Exchange
		v1, v2   string
		expected bool
	}{
		{DCE, "A", "B", true},
		{DCE, "B", "A", true},
		{DCE, "L", "PG", true},
		{DCE, "A", "Y", false},
		{CZCE, "A", "B", false},
		{SHFE, "CU", "AL", false},
	}

	for _, test := range tests {
		actual := IsCommodityPair(test.ex, test.v1, test.v2)
		if actual != test.expected {
			t.Fatalf("IsCommodityPair(%s, %s, %s): expected %v, got %v", test.ex, test.v1, test.v2, test.expected, actual)
		}
	}
}

func TestExchangeSubsets(t *testing.T) {
	equity := []Exchange{CFFEX, SSE, SZSE}
	commodity := []Exchange{SHFE, CZCE, DCE, GFEX}
	for _, ex := range equity {
		if !ex.IsEquity() || ex.IsCommodity() {
			t.Fatalf("%s expected equity-only", ex)
		}
	}
	for _, ex := range commodity {
		if !ex.IsCommodity() || ex.IsEquity() {
			t.Fatalf("%s expected commodity-only", ex)
		}
	}
}
