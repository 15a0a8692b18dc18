package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// Storage is the persistence port for monitor state. The core metrics
// logic never touches the filesystem directly so it can be tested
// against an in-memory implementation.
type Storage interface {
	LoadHistory() ([]core.TestResult, error)
	SaveHistory(history []core.TestResult) error
	LoadMetrics() (map[string]core.TestMetrics, error)
	SaveMetrics(metrics map[string]core.TestMetrics) error
	WriteDashboard(html string) error
}

// File names used by FileStorage within its directory.
const (
	historyFile   = "history.json"
	metricsFile   = "metrics.json"
	dashboardFile = "dashboard.html"
)

// FileStorage persists monitor state as JSON files plus a static HTML
// dashboard in a single directory. Writes are read-modify-write over
// whole files; a single writer process is assumed.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the storage directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) LoadHistory() ([]core.TestResult, error) {
	var history []core.TestResult
	if err := s.readJSON(historyFile, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *FileStorage) SaveHistory(history []core.TestResult) error {
	return s.writeJSON(historyFile, history)
}

func (s *FileStorage) LoadMetrics() (map[string]core.TestMetrics, error) {
	metrics := make(map[string]core.TestMetrics)
	if err := s.readJSON(metricsFile, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func (s *FileStorage) SaveMetrics(metrics map[string]core.TestMetrics) error {
	return s.writeJSON(metricsFile, metrics)
}

func (s *FileStorage) WriteDashboard(html string) error {
	path := filepath.Join(s.dir, dashboardFile)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}

// readJSON leaves v untouched when the file does not exist yet.
func (s *FileStorage) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (s *FileStorage) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// MemoryStorage keeps monitor state in memory. Intended for tests and
// for callers that handle persistence themselves.
type MemoryStorage struct {
	History   []core.TestResult
	Metrics   map[string]core.TestMetrics
	Dashboard string

	LoadErr           error // returned by both load calls
	SaveHistoryErr    error
	SaveMetricsErr    error
	WriteDashboardErr error
}

func (s *MemoryStorage) LoadHistory() ([]core.TestResult, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return append([]core.TestResult(nil), s.History...), nil
}

func (s *MemoryStorage) SaveHistory(history []core.TestResult) error {
	if s.SaveHistoryErr != nil {
		return s.SaveHistoryErr
	}
	s.History = append([]core.TestResult(nil), history...)
	return nil
}

func (s *MemoryStorage) LoadMetrics() (map[string]core.TestMetrics, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make(map[string]core.TestMetrics, len(s.Metrics))
	for k, v := range s.Metrics {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStorage) SaveMetrics(metrics map[string]core.TestMetrics) error {
	if s.SaveMetricsErr != nil {
		return s.SaveMetricsErr
	}
	out := make(map[string]core.TestMetrics, len(metrics))
	for k, v := range metrics {
		out[k] = v
	}
	s.Metrics = out
	return nil
}

func (s *MemoryStorage) WriteDashboard(html string) error {
	if s.WriteDashboardErr != nil {
		return s.WriteDashboardErr
	}
	s.Dashboard = html
	return nil
}
