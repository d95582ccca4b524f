package models

import (
	"fmt"
	"time"
)

// Check names, in report order.
const (
	CheckNoMissingNumeric      = "No missing values in tenure, MonthlyCharges, TotalCharges"
	CheckRowCountPreserved     = "Unique count of rows matches original dataset"
	CheckRemoteCountMatch      = "Row count matches remote table"
	CheckTenureSegmentCoverage = "All tenure_group segments exist"
	CheckChargeSegmentCoverage = "All monthly_charge_segment segments exist"
	CheckContractCodeDomain    = "Contract codes are only {0,1,2}"
)

// CheckResult is the outcome of one validation check.
type CheckResult struct {
	Name   string `yaml:"name"`
	Passed bool   `yaml:"passed"`
	Detail string `yaml:"detail"`
}

// Status renders the check outcome as PASS or FAIL.
func (c CheckResult) Status() string {
	if c.Passed {
		return "PASS"
	}
	return "FAIL"
}

// ValidationReport holds the six checks of one validation run and the counts
// they were computed from.
type ValidationReport struct {
	RunID       string    `yaml:"run_id"`
	Table       string    `yaml:"table"`
	GeneratedAt time.Time `yaml:"generated_at"`

	RawRows         int `yaml:"raw_rows"`
	RawUniqueRows   int `yaml:"raw_unique_rows"`
	TransformedRows int `yaml:"transformed_rows"`

	// RemoteRows is nil when the remote count could not be queried.
	RemoteRows  *int   `yaml:"remote_rows"`
	RemoteError string `yaml:"remote_error,omitempty"`

	Checks []CheckResult `yaml:"checks"`
	Passed bool          `yaml:"passed"`
}

// AllPassed reports whether every check passed.
func (r *ValidationReport) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Check returns the result with the given name.
func (r *ValidationReport) Check(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Summary is the one-line human-readable outcome.
func (r *ValidationReport) Summary() string {
	failed := 0
	for _, c := range r.Checks {
		if !c.Passed {
			failed++
		}
	}
	if failed == 0 {
		return fmt.Sprintf("All %d validation checks passed. Dataset is consistent and ready for ML.", len(r.Checks))
	}
	return fmt.Sprintf("%d of %d validation checks failed. Please review the issues above.", failed, len(r.Checks))
}
