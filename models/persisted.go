package models

import (
	"math"
	"strings"
)

// ColumnType is the logical type of a persisted column. Each store maps it to
// its own dialect.
type ColumnType int

const (
	Integer ColumnType = iota
	Float
	Text
)

// ColumnDef describes one persisted column.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// TableSchema is the ordered column list of the remote table, excluding the
// store-managed primary key.
type TableSchema []ColumnDef

// Names returns the column names in schema order.
func (s TableSchema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// PersistedSchema is the 12-column projection written to the remote table.
var PersistedSchema = TableSchema{
	{ColTenure, Integer},
	{ColMonthlyCharges, Float},
	{ColTotalCharges, Float},
	{ColChurn, Text},
	{ColInternetService, Text},
	{ColContract, Text},
	{ColPaymentMethod, Text},
	{ColTenureGroup, Text},
	{ColMonthlyChargeSegment, Text},
	{ColHasInternetService, Integer},
	{ColIsMultiLineUser, Integer},
	{ColContractTypeCode, Integer},
}

// PersistedRow holds one row's values in PersistedSchema order. A nil entry is
// stored as NULL.
type PersistedRow []any

// Get returns the value stored for col, or nil.
func (r PersistedRow) Get(col string) any {
	for i, c := range PersistedSchema {
		if c.Name == col && i < len(r) {
			return r[i]
		}
	}
	return nil
}

// NewPersistedRow converts a projected cell set into typed values. Missing or
// unparseable cells become nil so the store writes NULL.
func NewPersistedRow(cells Row) PersistedRow {
	row := make(PersistedRow, len(PersistedSchema))
	for i, c := range PersistedSchema {
		row[i] = persistedValue(c.Type, cells[c.Name])
	}
	return row
}

func persistedValue(t ColumnType, cell string) any {
	switch t {
	case Integer:
		n := ParseNumber(cell)
		if !n.Valid {
			return nil
		}
		return int64(math.Round(n.Float64))
	case Float:
		n := ParseNumber(cell)
		if !n.Valid {
			return nil
		}
		return n.Float64
	default:
		if IsMissing(strings.TrimSpace(cell)) {
			return nil
		}
		return cell
	}
}

