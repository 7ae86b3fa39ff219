package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
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

// RunInfo describes how a run was produced.
type RunInfo struct {
	Scenario   string
	Preset     string
	Integrator string
	Dt         float64
	Duration   float64
	Seed       int64
	Noise      float64
	Vehicle    dbw.VehicleParams
	Tuning     dbw.Tuning
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Noise      float64            `json:"noise"`
	Integrator string             `json:"integrator"`
	Steps      int                `json:"steps"`
	Columns    []string           `json:"columns"`
	Vehicle    dbw.VehicleParams  `json:"vehicle"`
	Tuning     dbw.Tuning         `json:"tuning"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Columns is the header of states.csv.
func Columns() []string {
	cols := []string{"time"}
	cols = append(cols, physics.StateLabels...)
	return append(cols, physics.ControlLabels...)
}

func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s", info.Scenario, now.Format("20060102_150405.000000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   info.Scenario,
		Preset:     info.Preset,
		Timestamp:  now,
		Seed:       info.Seed,
		Dt:         info.Dt,
		Duration:   info.Duration,
		Noise:      info.Noise,
		Integrator: info.Integrator,
		Steps:      result.StepsTaken,
		Columns:    Columns(),
		Vehicle:    info.Vehicle,
		Tuning:     info.Tuning,
		Metrics:    result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeStates emits one row per recorded state. The final state has no
// control applied and gets zeros in the control columns.
func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns()); err != nil {
		return err
	}

	nx, nu := len(physics.StateLabels), len(physics.ControlLabels)
	for i := range result.States {
		row := make([]string, 0, 1+nx+nu)
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for j := 0; j < nx; j++ {
			row = append(row, formatAt(result.States[i], j))
		}
		var u dynamo.Control
		if i < len(result.Controls) {
			u = result.Controls[i]
		}
		for j := 0; j < nu; j++ {
			row = append(row, formatAt(u, j))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatAt(v []float64, i int) string {
	if i >= len(v) {
		return "0"
	}
	return strconv.FormatFloat(v[i], 'f', 6, 64)
}

// List returns all runs, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// Trace is a loaded states.csv.
type Trace struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns the named series, or nil if the run has no such column.
func (tr *Trace) Column(name string) []float64 {
	idx := -1
	for i, c := range tr.Columns {
		if c == name {
			idx = i - 1
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(tr.Rows))
	for i, row := range tr.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

func (s *Store) LoadStates(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	tr := &Trace{}
	if len(records) == 0 {
		return tr, nil
	}
	tr.Columns = records[0]
	tr.Times = make([]float64, 0, len(records)-1)
	tr.Rows = make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				val = 0
			}
			row = append(row, val)
		}
		tr.Times = append(tr.Times, t)
		tr.Rows = append(tr.Rows, row)
	}

	return tr, nil
}
