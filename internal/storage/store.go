// Package storage persists completed runs: one directory per run holding
// metadata.json, the sampled energy series as energies.csv, and the
// trajectory file written during the run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/moldyn/internal/universe"
)

const TrajectoryFile = "trajectory.xyz"

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
	ID          string    `json:"id"`
	System      string    `json:"system"`
	Timestamp   time.Time `json:"timestamp"`
	Seed        int64     `json:"seed"`
	Temperature float64   `json:"temperature"`
	Pressure    float64   `json:"pressure"`
	Dt          float64   `json:"dt"`
	Duration    float64   `json:"duration"`
	Copies      int       `json:"copies"`
	Atoms       int       `json:"atoms"`
	Mode        string    `json:"mode"`
	Steps       uint64    `json:"steps"`
	Frames      int       `json:"frames"`
	EnergyDrift float64   `json:"energy_drift"`
}

// Prepare allocates a run directory before the simulation starts so the
// trajectory can stream into it. Returns the run ID and directory path.
func (s *Store) Prepare(system string) (string, string, error) {
	runID := fmt.Sprintf("%s_%d", sanitize(system), time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", "", err
	}
	return runID, runDir, nil
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "run"
	}
	return string(out)
}

// Save writes the run's metadata and energy series into its directory.
func (s *Store) Save(runID string, meta RunMetadata, result *universe.Result) error {
	runDir := filepath.Join(s.baseDir, runID)

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.Steps
	meta.Frames = result.Frames
	meta.EnergyDrift = result.EnergyDrift

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "energies.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "kinetic", "potential", "total"}); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'e', 9, 64),
			strconv.FormatFloat(result.Kinetic[i], 'e', 9, 64),
			strconv.FormatFloat(result.Potential[i], 'e', 9, 64),
			strconv.FormatFloat(result.Total[i], 'e', 9, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// EnergySeries is the sampled per-frame energy record of a stored run.
type EnergySeries struct {
	Times     []float64
	Kinetic   []float64
	Potential []float64
	Total     []float64
}

func (s *Store) LoadEnergies(runID string) (*EnergySeries, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "energies.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &EnergySeries{}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 4 {
			continue
		}

		vals := make([]float64, 4)
		ok := true
		for j, f := range record {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		series.Times = append(series.Times, vals[0])
		series.Kinetic = append(series.Kinetic, vals[1])
		series.Potential = append(series.Potential, vals[2])
		series.Total = append(series.Total, vals[3])
	}

	return series, nil
}

// TrajectoryPath returns where a run's trajectory file lives.
func (s *Store) TrajectoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, TrajectoryFile)
}
