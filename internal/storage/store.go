package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/motor"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Timestamp time.Time        `json:"timestamp"`
	Config    config.Config    `json:"config"`
	Samples   int              `json:"samples"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
	Metrics   map[string]Float `json:"metrics"`
}

func newRunID(label string) string {
	id := uuid.New().String()[:8]
	if label == "" {
		return id
	}
	return label + "_" + id
}

// Save writes the run under a fresh directory and returns its ID.
func (s *Store) Save(label string, cfg *config.Config, tr *motor.Trace, metrics map[string]float64, elapsed time.Duration) (string, error) {
	runID := newRunID(label)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.Mkdir(runDir, 0755); err != nil {
		return "", fmt.Errorf("storage: create run %s: %w", runID, err)
	}

	meta := RunMetadata{
		ID:        runID,
		Label:     label,
		Timestamp: time.Now(),
		Config:    *cfg,
		Samples:   tr.Len(),
		Elapsed:   elapsed,
		Metrics:   toFloatMap(metrics),
	}

	if err := writeRun(runDir, &meta, tr); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("storage: save run %s: %w", runID, err)
	}

	return runID, nil
}

func writeRun(runDir string, meta *RunMetadata, tr *motor.Trace) error {
	err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return err
	}

	return writeFile(filepath.Join(runDir, traceFile), func(w io.Writer) error {
		return WriteTraceCSV(w, tr)
	})
}

// writeFile creates path, runs write and reports the first error of the
// write or the close.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the metadata of every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*motor.Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadTraceCSV(file)
}
