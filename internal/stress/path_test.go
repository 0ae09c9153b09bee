package stress

import (
	"math"
	"testing"
)

func TestGeneratePathsSingleUdlDistribution(t *testing.T) {
	// Invariant 7: empirical mean/covariance of the step-1 log-return
	// converge to the analytic GBM moments for large n_path.
	cov := CovarianceTable{Udls: []string{"IF"}, Raw: [][]float64{{0.2}}}
	mu := map[string]float64{"IF": 0.0}
	seed := int64(7)

	paths, err := GeneratePaths(cov, mu, 1, 200000, &seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum, sumSq float64
	n := float64(paths.NPath)
	for _, r := range paths.R[0][0] {
		logR := math.Log(1 + r)
		sum += logR
		sumSq += logR * logR
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	wantMean := (0.0 - 0.5*0.2*0.2) * DefaultDt
	wantVar := 0.2 * 0.2 * DefaultDt

	if math.Abs(mean-wantMean) > 2e-4 {
		t.Fatalf("empirical mean %f too far from analytic %f", mean, wantMean)
	}
	if math.Abs(variance-wantVar) > 2e-4 {
		t.Fatalf("empirical variance %f too far from analytic %f", variance, wantVar)
	}
}

func TestGeneratePathsSingularCovariance(t *testing.T) {
	// A correlation above 1 makes the covariance matrix indefinite
	// (det = 0.04*0.04 - 0.06*0.06 < 0), so Cholesky factorization fails.
	cov := CovarianceTable{
		Udls: []string{"A", "B"},
		Raw: [][]float64{
			{0.2, 1.5},
			{0, 0.2},
		},
	}
	_, err := GeneratePaths(cov, nil, 1, 10, nil)
	if err == nil {
		t.Fatalf("expected singular/non-PSD covariance error")
	}
}

func TestGeneratePathsShape(t *testing.T) {
	cov := CovarianceTable{Udls: []string{"A", "B"}, Raw: [][]float64{{0.2, 0.3}, {0, 0.25}}}
	paths, err := GeneratePaths(cov, nil, 3, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paths.NStep != 3 || paths.NPath != 5 {
		t.Fatalf("unexpected shape: nstep=%d npath=%d", paths.NStep, paths.NPath)
	}
	if len(paths.R) != 3 || len(paths.R[0]) != 2 || len(paths.R[0][0]) != 5 {
		t.Fatalf("unexpected R dims")
	}
}
