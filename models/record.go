package models

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// Column names used by the churn dataset and the derived features.
const (
	ColCustomerID      = "customerID"
	ColGender          = "gender"
	ColTenure          = "tenure"
	ColMonthlyCharges  = "MonthlyCharges"
	ColTotalCharges    = "TotalCharges"
	ColChurn           = "Churn"
	ColInternetService = "InternetService"
	ColContract        = "Contract"
	ColPaymentMethod   = "PaymentMethod"
	ColMultipleLines   = "MultipleLines"

	ColTenureGroup          = "tenure_group"
	ColMonthlyChargeSegment = "monthly_charge_segment"
	ColHasInternetService   = "has_internet_service"
	ColIsMultiLineUser      = "is_multi_line_user"
	ColContractTypeCode     = "contract_type_code"
)

// NumericColumns are repaired and median-imputed by the transformer.
var NumericColumns = []string{ColTenure, ColMonthlyCharges, ColTotalCharges}

// DroppedColumns never leave the raw stage.
var DroppedColumns = []string{ColCustomerID, ColGender}

// DerivedColumns are appended to the staged schema, in this order.
var DerivedColumns = []string{
	ColTenureGroup,
	ColMonthlyChargeSegment,
	ColHasInternetService,
	ColIsMultiLineUser,
	ColContractTypeCode,
}

// UnknownValue replaces missing categorical values.
const UnknownValue = "Unknown"

// missingTokens are the cell values read as "no value", besides blank cells.
var missingTokens = map[string]struct{}{
	"NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "NULL": {}, "null": {}, "None": {}, "<NA>": {},
}

// IsMissing reports whether a CSV cell holds no value.
func IsMissing(cell string) bool {
	if cell == "" {
		return true
	}
	_, ok := missingTokens[cell]
	return ok
}

// ParseNumber parses a cell as a finite float. Missing, non-numeric, NaN and
// infinite cells (in any spelling ParseFloat accepts) are invalid.
func ParseNumber(cell string) sql.NullFloat64 {
	s := strings.TrimSpace(cell)
	if IsMissing(s) {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// FormatNumber renders a nullable float the way it is staged: shortest
// representation, empty when invalid.
func FormatNumber(n sql.NullFloat64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// Row is one CSV record keyed by column name.
type Row map[string]string

// Dataset is a header-ordered set of rows, as read from or written to a CSV file.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the dataset schema contains col.
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the columns from required that the schema lacks, in order.
func (d *Dataset) MissingColumns(required []string) []string {
	var missing []string
	for _, c := range required {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// RawRecord is one customer row exactly as extracted. It is never mutated.
type RawRecord = Row

// EnrichedRecord is a RawRecord after cleaning and feature derivation.
// Attributes holds every pass-through column (imputed); the numeric and
// derived fields are typed.
type EnrichedRecord struct {
	Attributes Row

	Tenure         sql.NullFloat64
	MonthlyCharges sql.NullFloat64
	TotalCharges   sql.NullFloat64

	TenureGroup          string
	MonthlyChargeSegment string
	HasInternetService   int
	IsMultiLineUser      int
	ContractTypeCode     sql.NullInt64
}

// Value renders the record's cell for col.
func (r *EnrichedRecord) Value(col string) string {
	switch col {
	case ColTenure:
		return FormatNumber(r.Tenure)
	case ColMonthlyCharges:
		return FormatNumber(r.MonthlyCharges)
	case ColTotalCharges:
		return FormatNumber(r.TotalCharges)
	case ColTenureGroup:
		return r.TenureGroup
	case ColMonthlyChargeSegment:
		return r.MonthlyChargeSegment
	case ColHasInternetService:
		return strconv.Itoa(r.HasInternetService)
	case ColIsMultiLineUser:
		return strconv.Itoa(r.IsMultiLineUser)
	case ColContractTypeCode:
		if !r.ContractTypeCode.Valid {
			return ""
		}
		return strconv.FormatInt(r.ContractTypeCode.Int64, 10)
	}
	return r.Attributes[col]
}

// EnrichedDataset is the transformer output: the staged schema plus its records.
type EnrichedDataset struct {
	Columns []string
	Records []EnrichedRecord
}

// Dataset renders the enriched records into their staged CSV form.
func (e *EnrichedDataset) Dataset() *Dataset {
	rows := make([]Row, 0, len(e.Records))
	for i := range e.Records {
		row := make(Row, len(e.Columns))
		for _, c := range e.Columns {
			row[c] = e.Records[i].Value(c)
		}
		rows = append(rows, row)
	}
	cols := make([]string, len(e.Columns))
	copy(cols, e.Columns)
	return &Dataset{Columns: cols, Rows: rows}
}
