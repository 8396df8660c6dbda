package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// ReportsFileName is the file reports are stored in, inside the reports directory.
const ReportsFileName = "reports.yaml"

// ReportStore persists suite reports.
type ReportStore interface {
	SaveReports(ctx context.Context, dir m.Path, reports []m.Report) error
	LoadReports(ctx context.Context, dir m.Path) ([]m.Report, error)
}

// YAMLReportStore keeps reports in a YAML document.
type YAMLReportStore struct{}

// NewReportStore returns a YAML-backed ReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

type reportsDocument struct {
	Reports []m.Report `yaml:"reports"`
}

// SaveReports writes reports to dir/reports.yaml, creating dir.
func (s *YAMLReportStore) SaveReports(_ context.Context, dir m.Path, reports []m.Report) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		slog.Error("Failed to create reports dir", "dir", dir, "error", err)
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := yaml.Marshal(reportsDocument{Reports: reports})
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	path := filepath.Join(string(dir), ReportsFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Error("Failed to write reports", "path", path, "error", err)
		return fmt.Errorf("write reports: %w", err)
	}

	slog.Debug("Saved reports", "path", path, "count", len(reports))

	return nil
}

// LoadReports reads reports saved by SaveReports.
func (s *YAMLReportStore) LoadReports(_ context.Context, dir m.Path) ([]m.Report, error) {
	path := filepath.Join(string(dir), ReportsFileName)

	// #nosec G304 - reports path is derived from the configured reports dir
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}

	var doc reportsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode reports %s: %w", path, err)
	}

	return doc.Reports, nil
}
