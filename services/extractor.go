package services

import (
	"errors"
	"fmt"
	"os"

	"churn-etl/models"
	"churn-etl/storage"
	"churn-etl/utils"
)

// Extractor snapshots the source dataset into the raw stage.
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates an Extractor with the given logger.
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract copies the CSV at sourcePath to rawPath, re-encoded as UTF-8. The
// raw file is fully replaced; nothing is written when the source is missing.
func (e *Extractor) Extract(sourcePath, rawPath string) (*models.Dataset, error) {
	ds, err := storage.ReadCSV(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return nil, err
	}

	if err := storage.WriteCSV(rawPath, ds); err != nil {
		return nil, err
	}

	e.logger.Info("[extract] Extracted %d rows (%d columns) to %s", ds.Len(), len(ds.Columns), rawPath)
	return ds, nil
}
