package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"churn-etl/models"
	"churn-etl/storage"
	"churn-etl/utils"
)

var (
	expectedTenureGroups   = []string{"New", "Regular", "Loyal", "Champion"}
	expectedChargeSegments = []string{"Low", "Medium", "High"}
	allowedContractCodes   = []string{"0", "1", "2"}
)

// Validator checks the raw, staged and persisted copies of the dataset
// against each other.
type Validator struct {
	counter storage.RowCounter
	logger  *utils.Logger
}

// NewValidator creates a Validator that reads the remote count from counter.
func NewValidator(counter storage.RowCounter, logger *utils.Logger) *Validator {
	return &Validator{counter: counter, logger: logger}
}

// ValidateFiles reads both files and validates them. A missing file is fatal
// and no check runs.
func (v *Validator) ValidateFiles(ctx context.Context, table, rawPath, stagedPath string) (*models.ValidationReport, error) {
	raw, err := readStage(rawPath, "raw")
	if err != nil {
		return nil, err
	}
	staged, err := readStage(stagedPath, "transformed")
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, table, raw, staged), nil
}

func readStage(path, stage string) (*models.Dataset, error) {
	ds, err := storage.ReadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s file %s", ErrSourceNotFound, stage, path)
		}
		return nil, err
	}
	return ds, nil
}

// Validate runs all six checks. Each is evaluated independently; a failing
// check never stops the others.
func (v *Validator) Validate(ctx context.Context, table string, raw, staged *models.Dataset) *models.ValidationReport {
	v.logger.Info("[validate] Starting validation...")

	report := &models.ValidationReport{
		Table:           table,
		GeneratedAt:     time.Now().UTC(),
		RawRows:         raw.Len(),
		RawUniqueRows:   uniqueRawRows(raw),
		TransformedRows: staged.Len(),
	}

	report.Checks = append(report.Checks,
		checkNoMissingNumeric(staged),
		checkRowCountPreserved(report.RawUniqueRows, report.TransformedRows),
		v.checkRemoteCount(ctx, report),
		checkCoverage(models.CheckTenureSegmentCoverage, staged, models.ColTenureGroup, expectedTenureGroups),
		checkCoverage(models.CheckChargeSegmentCoverage, staged, models.ColMonthlyChargeSegment, expectedChargeSegments),
		checkContractCodes(staged),
	)
	report.Passed = report.AllPassed()

	for i, c := range report.Checks {
		if c.Passed {
			v.logger.Info("[validate] Check %d PASS: %s (%s)", i+1, c.Name, c.Detail)
		} else {
			v.logger.Warn("[validate] Check %d FAIL: %s (%s)", i+1, c.Name, c.Detail)
		}
	}
	return report
}

// uniqueRawRows counts distinct customer ids, or all rows when there is no id column.
func uniqueRawRows(raw *models.Dataset) int {
	if !raw.HasColumn(models.ColCustomerID) {
		return raw.Len()
	}
	ids := utils.NewStringSet()
	for _, row := range raw.Rows {
		if id := row[models.ColCustomerID]; !models.IsMissing(id) {
			ids.Add(id)
		}
	}
	return ids.Size()
}

func checkNoMissingNumeric(staged *models.Dataset) models.CheckResult {
	var problems []string
	for _, col := range models.NumericColumns {
		if !staged.HasColumn(col) {
			problems = append(problems, col+": column absent")
			continue
		}
		n := 0
		for _, row := range staged.Rows {
			if models.IsMissing(row[col]) {
				n++
			}
		}
		if n > 0 {
			problems = append(problems, fmt.Sprintf("%s: %d missing", col, n))
		}
	}
	if len(problems) > 0 {
		return models.CheckResult{Name: models.CheckNoMissingNumeric, Detail: strings.Join(problems, ", ")}
	}
	return models.CheckResult{Name: models.CheckNoMissingNumeric, Passed: true, Detail: "no missing values"}
}

func checkRowCountPreserved(rawUnique, transformed int) models.CheckResult {
	return models.CheckResult{
		Name:   models.CheckRowCountPreserved,
		Passed: rawUnique == transformed,
		Detail: fmt.Sprintf("original unique: %d, transformed: %d", rawUnique, transformed),
	}
}

// checkRemoteCount treats a failed count query as a failed check.
func (v *Validator) checkRemoteCount(ctx context.Context, report *models.ValidationReport) models.CheckResult {
	res := models.CheckResult{Name: models.CheckRemoteCountMatch}
	n, err := v.counter.CountRows(ctx, report.Table)
	if err != nil {
		report.RemoteError = err.Error()
		res.Detail = "could not get remote row count: " + err.Error()
		return res
	}
	report.RemoteRows = &n
	res.Passed = n == report.TransformedRows
	res.Detail = fmt.Sprintf("remote rows: %d, transformed rows: %d", n, report.TransformedRows)
	return res
}

func distinctValues(staged *models.Dataset, col string) *utils.StringSet {
	set := utils.NewStringSet()
	if !staged.HasColumn(col) {
		return set
	}
	for _, row := range staged.Rows {
		if cell := row[col]; !models.IsMissing(cell) {
			set.Add(cell)
		}
	}
	return set
}

func checkCoverage(name string, staged *models.Dataset, col string, expected []string) models.CheckResult {
	found := distinctValues(staged, col)
	return models.CheckResult{
		Name:   name,
		Passed: utils.NewStringSet(expected...).IsSubsetOf(found),
		Detail: fmt.Sprintf("found: %v", found.Sorted()),
	}
}

func checkContractCodes(staged *models.Dataset) models.CheckResult {
	codes := utils.NewStringSet()
	for _, v := range distinctValues(staged, models.ColContractTypeCode).Sorted() {
		codes.Add(canonicalCode(v))
	}
	return models.CheckResult{
		Name:   models.CheckContractCodeDomain,
		Passed: codes.Size() > 0 && codes.IsSubsetOf(utils.NewStringSet(allowedContractCodes...)),
		Detail: fmt.Sprintf("found: %v", codes.Sorted()),
	}
}

// canonicalCode renders integral numbers without a fraction ("1.0" → "1") and
// leaves anything else untouched.
func canonicalCode(cell string) string {
	n := models.ParseNumber(cell)
	if !n.Valid || n.Float64 != math.Trunc(n.Float64) {
		return cell
	}
	return strconv.FormatInt(int64(n.Float64), 10)
}

// Print writes the report in a readable form.
func (v *Validator) Print(w io.Writer, r *models.ValidationReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  VALIDATION SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Row counts\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Raw rows (unique) : \033[1m%d (%d)\033[0m\n", r.RawRows, r.RawUniqueRows)
	fmt.Fprintf(w, "  Transformed rows  : \033[1m%d\033[0m\n", r.TransformedRows)
	if r.RemoteRows != nil {
		fmt.Fprintf(w, "  Remote rows       : \033[1m%d\033[0m\n", *r.RemoteRows)
	} else {
		fmt.Fprintf(w, "  Remote rows       : \033[1;31munavailable\033[0m\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Checks\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, c := range r.Checks {
		colour := "\033[1;32m"
		if !c.Passed {
			colour = "\033[1;31m"
		}
		fmt.Fprintf(w, "  - %s: %s%s\033[0m\n", c.Name, colour, c.Status())
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", r.Summary())
	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// WriteReport stores the report as YAML at path, replacing any previous report.
func WriteReport(path string, r *models.ValidationReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("report: create dir: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: write %q: %w", path, err)
	}
	return nil
}
