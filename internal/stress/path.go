// Package stress is the Stress Engine (§4.7): Monte-Carlo path
// generation over a correlated geometric-Brownian model, delta-gamma
// per-leg revaluation, and the two sub-engines (percentile VaR and a
// fixed scenario grid) that consume it.
package stress

import (
	"math"
	"math/rand"

	"github.com/contactkeval/marginrisk/internal/errs"
	"gonum.org/v1/gonum/mat"
)

// DefaultDt is the annualization step size (one trading day).
const DefaultDt = 1.0 / 252.0

// DefaultNStep is the default horizon in steps.
const DefaultNStep = 2

// CovarianceTable is the source representation named in §6: a square
// table indexed by underlying tag, diagonal = annualized volatility,
// upper-triangle off-diagonal = correlation (lower triangle, if
// present, is ignored and re-derived symmetrically).
type CovarianceTable struct {
	Udls []string
	// Raw[i][i] is the volatility of Udls[i]; Raw[i][j] for i<j is the
	// correlation between Udls[i] and Udls[j].
	Raw [][]float64
}

// Index returns the position of udl in the table, or -1.
func (c CovarianceTable) Index(udl string) int {
	for i, u := range c.Udls {
		if u == udl {
			return i
		}
	}
	return -1
}

// symmetricCov builds the proper PSD covariance C[i][j] = rho[i][j] *
// sigma[i] * sigma[j], C[i][i] = sigma[i]^2, from the source
// representation (§4.7).
func (c CovarianceTable) symmetricCov() *mat.SymDense {
	n := len(c.Udls)
	vol := make([]float64, n)
	for i := range vol {
		vol[i] = c.Raw[i][i]
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, vol[i]*vol[i])
		for j := i + 1; j < n; j++ {
			rho := c.Raw[i][j]
			sym.SetSym(i, j, rho*vol[i]*vol[j])
		}
	}
	return sym
}

// Paths holds the simulated underlying-return cube, shape
// (nStep, U, nPath), plus the udl -> row index map used to build it.
type Paths struct {
	R        [][][]float64 // R[step][u][path]
	UdlIndex map[string]int
	NStep    int
	NPath    int
}

// GeneratePaths implements the path generator of §4.7: Cholesky-factor
// the covariance, draw correlated standard normals, and return
// r = exp(cumulative log-return) - 1. mu is zero-filled for udls absent
// from the map. A nil seed draws from a fresh, unseeded source.
func GeneratePaths(cov CovarianceTable, mu map[string]float64, nStep, nPath int, seed *int64) (Paths, error) {
	n := len(cov.Udls)
	sym := cov.symmetricCov()

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return Paths{}, errs.ErrSingularCovariance
	}
	var L mat.TriDense
	chol.LTo(&L)

	vol := make([]float64, n)
	muVec := make([]float64, n)
	for i, u := range cov.Udls {
		vol[i] = cov.Raw[i][i]
		muVec[i] = mu[u]
	}

	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	r := make([][][]float64, nStep)
	for s := range r {
		r[s] = make([][]float64, n)
		for u := range r[s] {
			r[s][u] = make([]float64, nPath)
		}
	}

	sqrtDt := math.Sqrt(DefaultDt)
	z := mat.NewVecDense(n, nil)
	correlated := mat.NewVecDense(n, nil)

	for p := 0; p < nPath; p++ {
		cum := make([]float64, n)
		for s := 0; s < nStep; s++ {
			for i := 0; i < n; i++ {
				z.SetVec(i, rng.NormFloat64())
			}
			correlated.MulVec(&L, z)
			for u := 0; u < n; u++ {
				logR := (muVec[u]-0.5*vol[u]*vol[u])*DefaultDt + correlated.AtVec(u)*sqrtDt
				cum[u] += logR
				r[s][u][p] = math.Exp(cum[u]) - 1
			}
		}
	}

	idx := make(map[string]int, n)
	for i, u := range cov.Udls {
		idx[u] = i
	}
	return Paths{R: r, UdlIndex: idx, NStep: nStep, NPath: nPath}, nil
}
