package margin

import (
	"math"
	"testing"

	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestCalcFuture(t *testing.T) {
	in := Input{Type: taxonomy.Future, Exchange: taxonomy.DCE, ClosePrice: 4000, Multiplier: 10, MarginRatio: 0.08}
	got := Calc(in)
	if !almostEqual(got, 3200) {
		t.Fatalf("expected 3200, got %f", got)
	}
}

func TestCalcLongOptionIsZero(t *testing.T) {
	in := Input{Type: taxonomy.Option, Side: taxonomy.Long, Exchange: taxonomy.SSE}
	if got := Calc(in); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestCalcShortOptionSSECall(t *testing.T) {
	// close=0.1, strike=3.0, udl=3.0 (ATM), multiplier=10000.
	in := Input{
		Type: taxonomy.Option, Side: taxonomy.Short, Exchange: taxonomy.SSE, CallPut: taxonomy.Call,
		ClosePrice: 0.1, StrikePrice: 3.0, UnderlyingPx: 3.0, Multiplier: 10000,
	}
	// otm = max(3-3,0) = 0; margin = 10000*(0.1 + max(0.12*3-0, 0.07*3)) = 10000*(0.1+0.36) = 4600
	got := Calc(in)
	if !almostEqual(got, 4600) {
		t.Fatalf("expected 4600, got %f", got)
	}
}

func TestCalcShortOptionCFFEXPut(t *testing.T) {
	in := Input{
		Type: taxonomy.Option, Side: taxonomy.Short, Exchange: taxonomy.CFFEX, CallPut: taxonomy.Put,
		ClosePrice: 50, StrikePrice: 4000, UnderlyingPx: 4050, Multiplier: 200, MarginRatio: 0.1,
	}
	// otm = max(udl-strike,0) for put wait otm for put=max(udl-strike,0)? spec: put otm=max(udl-strike,0)
	// Actually §4.3: otm = max(strike-udl,0) for calls, max(udl-strike,0) for puts.
	o := math.Max(4050-4000, 0)
	want := 200 * (50 + math.Max(4050*0.1-o, 0.5*4000*0.1))
	got := Calc(in)
	if !almostEqual(got, want) {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestCalcShortOptionCommodity(t *testing.T) {
	in := Input{
		Type: taxonomy.Option, Side: taxonomy.Short, Exchange: taxonomy.DCE, CallPut: taxonomy.Call,
		ClosePrice: 100, StrikePrice: 3000, UnderlyingPx: 3200, Multiplier: 10, MarginRatio: 0.07,
	}
	o := math.Max(3000-3200, 0) // 0
	udlMargin := 3200 * 0.07
	want := 10 * (100 + udlMargin - 0.5*math.Min(o, udlMargin))
	got := Calc(in)
	if !almostEqual(got, want) {
		t.Fatalf("expected %f, got %f", want, got)
	}
}

func TestCalcFutureVec(t *testing.T) {
	in := Input{Type: taxonomy.Future, Exchange: taxonomy.DCE, Multiplier: 10, MarginRatio: 0.08}
	got := CalcFutureVec(in, []float64{3800, 4000, 4200})
	want := []float64{3040, 3200, 3360}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestCalcOptionVecLongIsZero(t *testing.T) {
	in := Input{Type: taxonomy.Option, Side: taxonomy.Long, Exchange: taxonomy.SSE}
	got := CalcOptionVec(in, []float64{3.0, 3.1}, []float64{0.1, 0.2})
	for _, v := range got {
		if v != 0 {
			t.Fatalf("expected all zero for long option, got %v", got)
		}
	}
}
