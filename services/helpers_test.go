package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"churn-etl/models"
	"churn-etl/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWithWriter(io.Discard, utils.LevelDebug) }

// fakeStore is an in-memory TableStore. failIf decides, per insert call,
// whether the batch is rejected.
type fakeStore struct {
	rows        []models.PersistedRow
	insertCalls int
	ensureCalls int
	ensureErr   error
	countErr    error
	failIf      func(rows []models.PersistedRow) bool
}

func (f *fakeStore) EnsureTable(context.Context, string, models.TableSchema) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeStore) InsertRows(_ context.Context, _ string, rows []models.PersistedRow) error {
	f.insertCalls++
	if f.failIf != nil && f.failIf(rows) {
		return errors.New("insert rejected: 503 service unavailable")
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeStore) CountRows(context.Context, string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows), nil
}

func (f *fakeStore) Close() error { return nil }

var rawColumns = []string{
	"customerID", "gender", "SeniorCitizen", "tenure", "MultipleLines", "InternetService",
	"Contract", "PaymentMethod", "MonthlyCharges", "TotalCharges", "Churn",
}

func rawRow(id, tenure, lines, internet, contract, monthly, total string) models.Row {
	return models.Row{
		"customerID":      id,
		"gender":          "Female",
		"SeniorCitizen":   "0",
		"tenure":          tenure,
		"MultipleLines":   lines,
		"InternetService": internet,
		"Contract":        contract,
		"PaymentMethod":   "Electronic check",
		"MonthlyCharges":  monthly,
		"TotalCharges":    total,
		"Churn":           "No",
	}
}

// sampleRaw covers every tenure group, charge segment and contract code.
func sampleRaw() *models.Dataset {
	return &models.Dataset{
		Columns: rawColumns,
		Rows: []models.Row{
			rawRow("7590-VHVEG", "1", "No phone service", "DSL", "Month-to-month", "29.85", "29.85"),
			rawRow("5575-GNVDE", "34", "No", "DSL", "One year", "56.95", "1889.5"),
			rawRow("3668-QPYBK", "45", "Yes", "Fiber optic", "Two year", "70.7", "3046.05"),
			rawRow("7795-CFOCW", "72", "Yes", "No", "Two year", "99.65", "7251.9"),
			rawRow("9237-HQITU", "0", "No", "Fiber optic", "Month-to-month", "70", " "),
		},
	}
}

// stagedRows builds n staged rows whose tenure is the row index.
func stagedRows(n int) *models.Dataset {
	ds := &models.Dataset{Columns: append(models.PersistedSchema.Names(), "SeniorCitizen")}
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, models.Row{
			"tenure":                 fmt.Sprint(i),
			"MonthlyCharges":         "50.5",
			"TotalCharges":           "100",
			"Churn":                  "No",
			"InternetService":        "DSL",
			"Contract":               "One year",
			"PaymentMethod":          "Mailed check",
			"tenure_group":           "Regular",
			"monthly_charge_segment": "Medium",
			"has_internet_service":   "1",
			"is_multi_line_user":     "0",
			"contract_type_code":     "1",
			"SeniorCitizen":          "0",
		})
	}
	return ds
}
