package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"

	"churn-etl/models"
	"churn-etl/storage"
	"churn-etl/utils"
)

// transformRequired are the raw columns the derived features are computed from.
var transformRequired = []string{
	models.ColTenure,
	models.ColMonthlyCharges,
	models.ColTotalCharges,
	models.ColInternetService,
	models.ColMultipleLines,
	models.ColContract,
}

var contractCodes = map[string]int64{
	"Month-to-month": 0,
	"One year":       1,
	"Two year":       2,
}

// Transformer turns raw customer rows into enriched, feature-engineered records.
type Transformer struct {
	logger *utils.Logger
}

// NewTransformer creates a Transformer with the given logger.
func NewTransformer(logger *utils.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Run reads the raw file, transforms it, and replaces the staged file. When the
// raw file is missing no staged file is written.
func (t *Transformer) Run(rawPath, stagedPath string) (*models.EnrichedDataset, error) {
	raw, err := storage.ReadCSV(rawPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: raw file %s", ErrSourceNotFound, rawPath)
		}
		return nil, err
	}

	enriched, err := t.Transform(raw)
	if err != nil {
		return nil, err
	}

	if err := storage.WriteCSV(stagedPath, enriched.Dataset()); err != nil {
		return nil, err
	}
	t.logger.Info("[transform] Staged %d rows at %s", len(enriched.Records), stagedPath)
	return enriched, nil
}

// Transform cleans raw and derives the feature columns. The output has one
// record per input row, in the same order. Imputation medians are computed
// over raw itself, so the result depends only on its input.
func (t *Transformer) Transform(raw *models.Dataset) (*models.EnrichedDataset, error) {
	if missing := raw.MissingColumns(transformRequired); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}

	// Numeric coercion: anything unparseable becomes missing.
	numeric := make(map[string][]sql.NullFloat64, len(models.NumericColumns))
	for _, col := range models.NumericColumns {
		values := make([]sql.NullFloat64, len(raw.Rows))
		for i, row := range raw.Rows {
			values[i] = models.ParseNumber(row[col])
		}
		numeric[col] = values
	}

	for _, col := range models.NumericColumns {
		med, ok := median(numeric[col])
		if !ok {
			t.logger.Warn("[transform] Column %s has no numeric values, leaving it missing", col)
			continue
		}
		imputed := 0
		for i, v := range numeric[col] {
			if !v.Valid {
				numeric[col][i] = sql.NullFloat64{Float64: med, Valid: true}
				imputed++
			}
		}
		if imputed > 0 {
			t.logger.Info("[transform] Imputed %d missing %s values with median %v", imputed, col, med)
		}
	}

	passthrough, categorical := t.classifyColumns(raw)

	columns := make([]string, 0, len(raw.Columns)+len(models.DerivedColumns))
	for _, col := range raw.Columns {
		if !isDropped(col) {
			columns = append(columns, col)
		}
	}
	for _, col := range models.DerivedColumns {
		if !raw.HasColumn(col) {
			columns = append(columns, col)
		}
	}

	unknownFilled := 0
	records := make([]models.EnrichedRecord, len(raw.Rows))
	for i, row := range raw.Rows {
		attrs := make(models.Row, len(passthrough))
		for _, col := range passthrough {
			cell := row[col]
			if models.IsMissing(cell) {
				if categorical[col] {
					cell = models.UnknownValue
					unknownFilled++
				} else {
					cell = ""
				}
			}
			attrs[col] = cell
		}

		rec := models.EnrichedRecord{
			Attributes:     attrs,
			Tenure:         numeric[models.ColTenure][i],
			MonthlyCharges: numeric[models.ColMonthlyCharges][i],
			TotalCharges:   numeric[models.ColTotalCharges][i],
		}
		rec.TenureGroup = TenureGroup(rec.Tenure)
		rec.MonthlyChargeSegment = MonthlyChargeSegment(rec.MonthlyCharges)
		rec.HasInternetService = HasInternetService(attrs[models.ColInternetService])
		rec.IsMultiLineUser = IsMultiLineUser(attrs[models.ColMultipleLines])
		rec.ContractTypeCode = ContractTypeCode(attrs[models.ColContract])
		records[i] = rec
	}

	if unknownFilled > 0 {
		t.logger.Info("[transform] Filled %d missing categorical values with %q", unknownFilled, models.UnknownValue)
	}
	t.logger.Info("[transform] Transformed %d → %d rows, %d columns", len(raw.Rows), len(records), len(columns))

	return &models.EnrichedDataset{Columns: columns, Records: records}, nil
}

// classifyColumns returns the pass-through columns (everything except the
// dropped, numeric and derived ones) and which of them are categorical. A
// column is numeric when every non-missing value parses as a number.
func (t *Transformer) classifyColumns(raw *models.Dataset) ([]string, map[string]bool) {
	skip := utils.NewStringSet(models.NumericColumns...)
	for _, c := range models.DroppedColumns {
		skip.Add(c)
	}
	for _, c := range models.DerivedColumns {
		skip.Add(c)
	}

	var passthrough []string
	categorical := make(map[string]bool)
	for _, col := range raw.Columns {
		if skip.Contains(col) {
			continue
		}
		passthrough = append(passthrough, col)
		for _, row := range raw.Rows {
			cell := row[col]
			if models.IsMissing(cell) {
				continue
			}
			if !models.ParseNumber(cell).Valid {
				categorical[col] = true
				break
			}
		}
	}
	// The mapped columns are always categorical, whatever their content.
	for _, col := range []string{models.ColInternetService, models.ColMultipleLines, models.ColContract} {
		categorical[col] = true
	}
	return passthrough, categorical
}

// TenureGroup buckets tenure in months: up to 12 New, up to 36 Regular, up to
// 60 Loyal, above Champion. Missing tenure has no group.
func TenureGroup(tenure sql.NullFloat64) string {
	if !tenure.Valid {
		return ""
	}
	switch t := tenure.Float64; {
	case t <= 12:
		return "New"
	case t <= 36:
		return "Regular"
	case t <= 60:
		return "Loyal"
	case t > 60:
		return "Champion"
	}
	return ""
}

// MonthlyChargeSegment: below 30 Low, 30 to 70 inclusive Medium, above 70 High.
func MonthlyChargeSegment(charge sql.NullFloat64) string {
	if !charge.Valid {
		return "Unknown"
	}
	switch c := charge.Float64; {
	case c < 30:
		return "Low"
	case c >= 30 && c <= 70:
		return "Medium"
	case c > 70:
		return "High"
	}
	return "Unknown"
}

// HasInternetService is 1 for DSL or fiber customers, 0 otherwise.
func HasInternetService(service string) int {
	switch service {
	case "DSL", "Fiber optic":
		return 1
	}
	return 0
}

// IsMultiLineUser is 1 only when MultipleLines is exactly "Yes".
func IsMultiLineUser(lines string) int {
	if lines == "Yes" {
		return 1
	}
	return 0
}

// ContractTypeCode maps the contract term to 0/1/2; unknown terms have no code.
func ContractTypeCode(contract string) sql.NullInt64 {
	code, ok := contractCodes[contract]
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: code, Valid: true}
}

func isDropped(col string) bool {
	for _, d := range models.DroppedColumns {
		if col == d {
			return true
		}
	}
	return false
}

// median of the valid values; false when there are none.
func median(values []sql.NullFloat64) (float64, bool) {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			vals = append(vals, v.Float64)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}
