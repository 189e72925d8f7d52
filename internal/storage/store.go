package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	metadataFile  = "metadata.json"
	energyFile    = "energy.csv"
	snapshotsFile = "snapshots.csv"
	finalFile     = "final.csv"
)

var (
	energyHeader   = []string{"step", "time", "kinetic", "potential", "total"}
	particleHeader = []string{"index", "mass", "x", "y", "vx", "vy"}
)

// ErrInvalidRunName is returned for run names that are empty or would
// escape the store directory.
var ErrInvalidRunName = errors.New("storage: invalid run name")

func validRunName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidRunName, name)
	}
	return nil
}

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
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Particles   int                `json:"particles"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Dt          float64            `json:"dt"`
	OutputFreq  int                `json:"output_freq"`
	Workers     int                `json:"workers"`
	Init        string             `json:"init"`
	Gravity     float64            `json:"gravity"`
	Elapsed     float64            `json:"elapsed_seconds"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// Run is a saved run in progress. It observes output steps and writes
// snapshot rows as they arrive; Finish writes the rest.
type Run struct {
	ID   string
	dir  string
	meta RunMetadata

	snapFile *os.File
	snaps    *csv.Writer
}

// Create makes the run directory. Snapshot rows are only written when
// cfg.Snapshots is set.
func (s *Store) Create(name string, cfg *config.Config) (*Run, error) {
	if err := validRunName(name); err != nil {
		return nil, err
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	run := &Run{
		ID:  runID,
		dir: runDir,
		meta: RunMetadata{
			ID:         runID,
			Name:       name,
			Timestamp:  now,
			Particles:  cfg.Particles,
			Steps:      cfg.Steps,
			Dt:         cfg.Dt,
			OutputFreq: cfg.OutputFreq,
			Workers:    cfg.Workers,
			Init:       cfg.Init,
			Gravity:    cfg.Gravity,
		},
	}

	if cfg.Snapshots {
		f, err := os.Create(filepath.Join(runDir, snapshotsFile))
		if err != nil {
			return nil, err
		}
		run.snapFile = f
		run.snaps = csv.NewWriter(f)
		if err := run.snaps.Write(append([]string{"step", "time"}, particleHeader...)); err != nil {
			f.Close()
			return nil, err
		}
	}

	return run, nil
}

func (r *Run) Dir() string { return r.dir }

func (r *Run) OnOutput(sys *dynamo.System, s dynamo.Sample) error {
	if r.snaps == nil {
		return nil
	}
	step := strconv.Itoa(s.Step)
	t := formatFloat(s.Time)
	for i := 0; i < sys.Len(); i++ {
		row := append([]string{step, t}, particleRow(i, sys.At(i))...)
		if err := r.snaps.Write(row); err != nil {
			return err
		}
	}
	return r.snaps.Error()
}

// Finish writes metadata, the energy history and the final state, and closes
// the snapshot file.
// Abort finishes a run that stopped with cause, so the run keeps its
// metadata and partial energy history. result may be nil.
func (r *Run) Abort(result *sim.Result, cause error) error {
	res := &sim.Result{}
	if result != nil {
		c := *result
		res = &c
	}
	res.Errors = append(append([]error(nil), res.Errors...), cause)
	return r.Finish(res)
}

func (r *Run) Finish(result *sim.Result) error {
	if r.snaps != nil {
		r.snaps.Flush()
		err := r.snaps.Error()
		if cerr := r.snapFile.Close(); err == nil {
			err = cerr
		}
		r.snaps = nil
		if err != nil {
			return err
		}
	}

	r.meta.StepsTaken = result.StepsTaken
	r.meta.Elapsed = result.Elapsed.Seconds()
	r.meta.EnergyDrift = result.EnergyDrift
	r.meta.Metrics = result.Metrics
	for _, e := range result.Errors {
		r.meta.Errors = append(r.meta.Errors, e.Error())
	}

	if err := writeJSON(filepath.Join(r.dir, metadataFile), r.meta); err != nil {
		return err
	}

	rows := make([][]string, 0, len(result.Samples))
	for _, s := range result.Samples {
		if !s.Measured {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Step),
			formatFloat(s.Time),
			formatFloat(s.Energy.Kinetic),
			formatFloat(s.Energy.Potential),
			formatFloat(s.Energy.Total()),
		})
	}
	if err := writeCSV(filepath.Join(r.dir, energyFile), energyHeader, rows); err != nil {
		return err
	}

	rows = make([][]string, len(result.Final))
	for i, p := range result.Final {
		rows[i] = particleRow(i, p)
	}
	return writeCSV(filepath.Join(r.dir, finalFile), particleHeader, rows)
}

// Save stores a finished run without per-step snapshots.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	c := *cfg
	c.Snapshots = false
	run, err := s.Create(name, &c)
	if err != nil {
		return "", err
	}
	return run.ID, run.Finish(result)
}

// List returns every readable run, oldest first.
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

func (s *Store) LoadEnergy(runID string) ([]dynamo.Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, energyFile))
	if err != nil {
		return nil, err
	}

	samples := make([]dynamo.Sample, 0, len(records))
	for line, rec := range records {
		v, err := parseFloats(rec, len(energyHeader))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", energyFile, line+2, err)
		}
		samples = append(samples, dynamo.Sample{
			Step:     int(v[0]),
			Time:     v[1],
			Energy:   dynamo.EnergyReport{Kinetic: v[2], Potential: v[3]},
			Measured: true,
		})
	}
	return samples, nil
}

func (s *Store) LoadFinal(runID string) ([]dynamo.Particle, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, finalFile))
	if err != nil {
		return nil, err
	}

	ps := make([]dynamo.Particle, 0, len(records))
	for line, rec := range records {
		v, err := parseFloats(rec, len(particleHeader))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", finalFile, line+2, err)
		}
		ps = append(ps, dynamo.Particle{
			Mass: v[1],
			Pos:  r2.Vec{X: v[2], Y: v[3]},
			Vel:  r2.Vec{X: v[4], Y: v[5]},
		})
	}
	return ps, nil
}

func particleRow(i int, p dynamo.Particle) []string {
	return []string{
		strconv.Itoa(i),
		formatFloat(p.Mass),
		formatFloat(p.Pos.X), formatFloat(p.Pos.Y),
		formatFloat(p.Vel.X), formatFloat(p.Vel.Y),
	}
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

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// readCSV returns every record after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(rec []string, want int) ([]float64, error) {
	if len(rec) != want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(rec))
	}
	v := make([]float64, want)
	for i, s := range rec {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}
