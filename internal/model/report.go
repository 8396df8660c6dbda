package model

import "time"

// Outcome is the verdict of a single test.
type Outcome string

const (
	// OK means the render matched its fixture.
	OK Outcome = "ok"
	// NOK means the test failed at any stage.
	NOK Outcome = "failed"
)

// Report is the result of running one test case.
type Report struct {
	TestID     string        `yaml:"test_id"`
	Kind       OutputKind    `yaml:"kind"`
	Outcome    Outcome       `yaml:"outcome"`
	Error      string        `yaml:"error,omitempty"`
	ScratchDir Path          `yaml:"scratch_dir,omitempty"`
	Duration   time.Duration `yaml:"duration"`
	Updated    bool          `yaml:"updated,omitempty"`

	Err error `yaml:"-"`
}

// Passed reports whether the test succeeded.
func (r Report) Passed() bool {
	return r.Outcome == OK
}

// PassRate returns the fraction of passed reports, 1 for an empty set.
func PassRate(reports []Report) float64 {
	if len(reports) == 0 {
		return 1
	}

	passed := 0

	for _, r := range reports {
		if r.Passed() {
			passed++
		}
	}

	return float64(passed) / float64(len(reports))
}

// BatchResult is the outcome of one render in a batch run.
type BatchResult struct {
	Output  Path
	Skipped bool
	Err     error
}
