package customs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kbsync/internal"
	"kbsync/internal/classify"
	"kbsync/internal/storage"
	"kbsync/internal/util"
)

const dateOnlyLayout = "2006-01-02"

// ImportService loads cleaned ledger files and mapping sheets, and runs
// reclassification over the stored rows.
type ImportService struct {
	db *storage.DB
}

func NewImportService(db *storage.DB) *ImportService {
	return &ImportService{db: db}
}

type ImportResult struct {
	TraceID  string
	Rows     int
	Dropped  int
	Deleted  int64
	Inserted int
}

// ImportFile replaces the date range covered by the file: rows without a
// parseable date are dropped, the covered range is deleted, and the cleaned
// rows are inserted, all in one pass.
func (s *ImportService) ImportFile(path string, commit bool) (ImportResult, error) {
	start := time.Now()
	result := ImportResult{TraceID: uuid.NewString()}

	records, err := ProcessFile(path)
	if err != nil {
		s.recordRun("customs:import", result.TraceID, nil, time.Since(start), err)
		return result, err
	}

	kept := make([]internal.CustomsRecord, 0, len(records))
	var minDate, maxDate time.Time
	for _, rec := range records {
		if rec.Date == nil {
			result.Dropped++
			continue
		}
		if minDate.IsZero() || rec.Date.Before(minDate) {
			minDate = *rec.Date
		}
		if maxDate.IsZero() || rec.Date.After(maxDate) {
			maxDate = *rec.Date
		}
		kept = append(kept, rec)
	}
	result.Rows = len(kept)
	if result.Dropped > 0 {
		slog.Warn("rows without a parseable date dropped", "file", filepath.Base(path), "dropped", result.Dropped)
	}

	if len(kept) == 0 {
		err := fmt.Errorf("%s produced no loadable rows", filepath.Base(path))
		s.recordRun("customs:import", result.TraceID, result.counts(), time.Since(start), err)
		return result, err
	}

	result.Deleted, result.Inserted, err = s.db.ReplaceCustomsDateRange(
		kept,
		minDate.Format(dateOnlyLayout),
		maxDate.Format(dateOnlyLayout),
		commit,
	)

	s.recordRun("customs:import", result.TraceID, result.counts(), time.Since(start), err)
	slog.Info("ledger import finished",
		"trace_id", result.TraceID,
		"file", filepath.Base(path),
		"rows", result.Rows,
		"dropped", result.Dropped,
		"deleted", result.Deleted,
		"inserted", result.Inserted,
		"committed", commit && err == nil,
	)
	return result, err
}

// ImportMapping loads an importer-name standardization sheet. Both columns
// are reduced to their alphanumeric identity form before storage.
func (s *ImportService) ImportMapping(path string, commit bool) (int, error) {
	start := time.Now()
	traceID := uuid.NewString()

	headers, rows, err := ReadTable(path)
	if err != nil {
		s.recordRun("customs:import-mapping", traceID, nil, time.Since(start), err)
		return 0, err
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	originalIdx, ok := index["original_importer_name"]
	if !ok {
		err := fmt.Errorf("%s missing column original_importer_name", filepath.Base(path))
		s.recordRun("customs:import-mapping", traceID, nil, time.Since(start), err)
		return 0, err
	}
	standardizedIdx, ok := index["standardized_importer_name"]
	if !ok {
		err := fmt.Errorf("%s missing column standardized_importer_name", filepath.Base(path))
		s.recordRun("customs:import-mapping", traceID, nil, time.Since(start), err)
		return 0, err
	}

	mappings := make([]internal.ImporterMapping, 0, len(rows))
	for _, cells := range rows {
		var original, standardized string
		if originalIdx < len(cells) {
			original = util.CleanText(cells[originalIdx])
		}
		if standardizedIdx < len(cells) {
			standardized = util.CleanText(cells[standardizedIdx])
		}
		if original == "" && standardized == "" {
			continue
		}
		mappings = append(mappings, internal.ImporterMapping{
			OriginalImporterName:     original,
			StandardizedImporterName: standardized,
		})
	}

	inserted, err := s.db.InsertImporterMappings(mappings, commit)
	s.recordRun("customs:import-mapping", traceID, map[string]int{"inserted": inserted}, time.Since(start), err)
	slog.Info("mapping import finished", "trace_id", traceID, "file", filepath.Base(path), "inserted", inserted)
	return inserted, err
}

// Reclassify reruns product classification over every stored row and
// writes the resulting labels back.
func (s *ImportService) Reclassify(commit bool) (int, error) {
	start := time.Now()
	traceID := uuid.NewString()

	descriptions, err := s.db.ListCustomsDescriptions()
	if err != nil {
		s.recordRun("customs:reclassify", traceID, nil, time.Since(start), err)
		return 0, err
	}

	updates := make([]internal.ClassificationUpdate, 0, len(descriptions))
	for _, d := range descriptions {
		updates = append(updates, internal.ClassificationUpdate{
			ID:    d.ID,
			Label: classify.Classify(d.ProductDescription),
		})
	}

	updated, err := s.db.UpdateClassifications(updates, commit)
	s.recordRun("customs:reclassify", traceID, map[string]int{"scanned": len(descriptions), "updated": updated}, time.Since(start), err)
	slog.Info("reclassification finished", "trace_id", traceID, "scanned", len(descriptions), "updated", updated)
	return updated, err
}

func (r ImportResult) counts() map[string]int {
	return map[string]int{
		"rows":     r.Rows,
		"dropped":  r.Dropped,
		"deleted":  int(r.Deleted),
		"inserted": r.Inserted,
	}
}

func (s *ImportService) recordRun(stage, traceID string, counts map[string]int, elapsed time.Duration, runErr error) {
	status := internal.RunOK
	errMsg := ""
	if runErr != nil {
		status = internal.RunFailed
		errMsg = runErr.Error()
	}
	if counts == nil {
		counts = map[string]int{}
	}
	if err := s.db.InsertRun(internal.RunRecord{
		TraceID:  traceID,
		Stage:    stage,
		Counts:   counts,
		Duration: elapsed,
		Status:   status,
		Error:    errMsg,
	}); err != nil {
		slog.Warn("failed to record run", "stage", stage, "error", err)
	}
}
