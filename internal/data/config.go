package data

// RunConfig is the JSON run configuration read by the CLI driver, named
// the same way the reference codebase's engine.Config is: a flat struct
// unmarshaled straight from the file named by --config.
type RunConfig struct {
	TableDir  string `json:"table_dir"`
	OutputDir string `json:"output_dir"`

	NPath           int     `json:"n_path"`
	NStep           int     `json:"n_step"`
	Seed            int64   `json:"seed"`
	Percentile      float64 `json:"p"`
	TargetRiskRatio float64 `json:"target_risk_ratio"`
	RGrid           []float64 `json:"r_grid"`
	StrictMode      bool    `json:"strict_mode"`
}

// Defaults fills zero-valued fields with the run defaults named in the
// stress engine (§4.7).
func (c *RunConfig) Defaults() {
	if c.NPath == 0 {
		c.NPath = 10000
	}
	if c.NStep == 0 {
		c.NStep = 2
	}
	if c.Percentile == 0 {
		c.Percentile = 90
	}
	if c.TargetRiskRatio == 0 {
		c.TargetRiskRatio = 0.95
	}
}
