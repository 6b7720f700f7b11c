package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/observability/metrics"
)

// snapshotFile names the audit snapshot for one run date.
func snapshotFile(date string) string {
	return fmt.Sprintf("premarket_report_%s.json", date)
}

// WriteSnapshot serializes the report to its audit snapshot, keyed by the
// report's run date, and returns the written path. Re-running on the same
// date overwrites the earlier snapshot.
func (s *Service) WriteSnapshot(report entity.ReportData) (string, error) {
	start := s.now()

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report snapshot: %w", err)
	}

	path := filepath.Join(s.outputDir, snapshotFile(report.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report snapshot: %w", err)
	}

	metrics.RecordSnapshotWrite(s.now().Sub(start))
	return path, nil
}

// ReadSnapshot loads the snapshot written for the given run date. External
// renderers use the same decoder, so every field round-trips losslessly.
func (s *Service) ReadSnapshot(date string) (entity.ReportData, error) {
	path := filepath.Join(s.outputDir, snapshotFile(date))
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.ReportData{}, fmt.Errorf("read report snapshot: %w", err)
	}

	var report entity.ReportData
	if err := json.Unmarshal(data, &report); err != nil {
		return entity.ReportData{}, fmt.Errorf("decode report snapshot %s: %w", path, err)
	}
	return report, nil
}
