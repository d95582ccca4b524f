package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"churn-etl/models"
	"churn-etl/storage"
	"churn-etl/utils"
)

// BatchResult records the outcome of one batch.
type BatchResult struct {
	Number   int
	Start    int // first row, 1-based
	End      int // last row, inclusive
	Attempts int
	Err      error
}

// Rows returns the number of rows in the batch.
func (b BatchResult) Rows() int { return b.End - b.Start + 1 }

// LoadResult summarises one load run.
type LoadResult struct {
	Table        string
	TotalRows    int
	InsertedRows int
	Batches      []BatchResult
}

// FailedBatches returns the batches that were skipped after exhausting retries.
func (r *LoadResult) FailedBatches() []BatchResult {
	var failed []BatchResult
	for _, b := range r.Batches {
		if b.Err != nil {
			failed = append(failed, b)
		}
	}
	return failed
}

// Loader appends staged rows to a remote table in fixed-size batches.
type Loader struct {
	store     storage.TableStore
	batchSize int
	retry     *utils.RetryPolicy
	logger    *utils.Logger
}

// NewLoader creates a Loader. Batches hold at most batchSize rows and each is
// attempted according to retry.
func NewLoader(store storage.TableStore, batchSize int, retry *utils.RetryPolicy, logger *utils.Logger) *Loader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Loader{store: store, batchSize: batchSize, retry: retry, logger: logger}
}

// LoadFile reads the staged CSV at stagedPath and loads it into table.
func (l *Loader) LoadFile(ctx context.Context, table, stagedPath string) (*LoadResult, error) {
	l.logger.Info("[load] Looking for staged data at %s", stagedPath)
	staged, err := storage.ReadCSV(stagedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: staged file %s (run transform first)", ErrSourceNotFound, stagedPath)
		}
		return nil, err
	}
	return l.Load(ctx, table, staged)
}

// Load projects staged onto the persisted schema and inserts it batch by batch.
// It fails before touching the store when a persisted column is absent. A batch
// that fails every attempt is skipped and loading continues; batches already
// inserted stay inserted. When ctx is done the run stops and the partial
// result is returned with an error wrapping ctx.Err().
func (l *Loader) Load(ctx context.Context, table string, staged *models.Dataset) (*LoadResult, error) {
	required := models.PersistedSchema.Names()
	if missing := staged.MissingColumns(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w in staged data: %v", ErrMissingColumns, missing)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %q: %w", table, err)
	}

	l.ensureTable(ctx, table)

	projected := make([]models.Row, len(staged.Rows))
	for i, row := range staged.Rows {
		cells := make(models.Row, len(required))
		for _, col := range required {
			cells[col] = row[col]
		}
		projected[i] = cells
	}

	total := len(projected)
	result := &LoadResult{Table: table, TotalRows: total}
	l.logger.Info("[load] Loading %d rows into '%s' in batches of %d", total, table, l.batchSize)

	for start := 0; start < total; start += l.batchSize {
		end := start + l.batchSize
		if end > total {
			end = total
		}
		number := start/l.batchSize + 1

		rows := make([]models.PersistedRow, 0, end-start)
		for _, cells := range projected[start:end] {
			rows = append(rows, models.NewPersistedRow(cells))
		}

		op := fmt.Sprintf("batch %d (rows %d-%d)", number, start+1, end)
		attempts, err := l.retry.Do(ctx, op, func(int) error {
			return l.store.InsertRows(ctx, table, rows)
		})

		br := BatchResult{Number: number, Start: start + 1, End: end, Attempts: attempts, Err: err}
		result.Batches = append(result.Batches, br)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				result.InsertedRows += br.Rows()
			}
			l.logger.Error("[load] Interrupted at batch %d: %d/%d rows inserted", number, result.InsertedRows, total)
			return result, fmt.Errorf("load %q interrupted at batch %d: %w", table, number, ctxErr)
		}
		if err != nil {
			l.logger.Error("[load] Max retries reached for batch %d (rows %d-%d). Skipping this batch: %v",
				number, start+1, end, err)
			continue
		}
		result.InsertedRows += br.Rows()
		l.logger.Info("[load] Batch %d: inserted rows %d-%d of %d", number, start+1, end, total)
	}

	failed := result.FailedBatches()
	if len(failed) > 0 {
		l.logger.Warn("[load] Finished loading '%s': %d/%d rows inserted, %d batch(es) skipped",
			table, result.InsertedRows, total, len(failed))
	} else {
		l.logger.Info("[load] Finished loading '%s': %d/%d rows inserted", table, result.InsertedRows, total)
	}
	return result, nil
}

// ensureTable creates the table if needed. Failure is logged and loading
// carries on, since the table may be managed outside this pipeline.
func (l *Loader) ensureTable(ctx context.Context, table string) {
	if err := l.store.EnsureTable(ctx, table, models.PersistedSchema); err != nil {
		l.logger.Warn("[load] Could not create table '%s': %v", table, err)
		l.logger.Warn("[load] If it does not exist, create it manually. Trying to continue with data insertion...")
		return
	}
	l.logger.Info("[load] Table '%s' created or already exists", table)
}
