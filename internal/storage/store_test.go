package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []dynamo.Sample{
			{Step: 0, Time: 0, Energy: dynamo.EnergyReport{Kinetic: 9e33, Potential: -1.6e34}, Measured: true},
			{Step: 100, Time: 1, Energy: dynamo.EnergyReport{Kinetic: 9.1e33, Potential: -1.61e34}, Measured: true},
			{Step: 200, Time: 2},
		},
		Final: []dynamo.Particle{
			{Mass: 5e24, Pos: r2.Vec{X: 1, Y: 2}, Vel: r2.Vec{X: 3, Y: 4}},
			{Mass: 5e24, Pos: r2.Vec{X: -1, Y: -2}, Vel: r2.Vec{X: -3, Y: -4}},
		},
		StepsTaken:  200,
		Elapsed:     1500 * time.Millisecond,
		EnergyDrift: 0.01,
		Metrics:     map[string]float64{"energy_drift": 0.01},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Particles = 2

	runID, err := st.Save("binary", cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "binary" {
		t.Errorf("expected name 'binary', got '%s'", meta.Name)
	}
	if meta.Particles != 2 || meta.StepsTaken != 200 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Elapsed != 1.5 {
		t.Errorf("expected elapsed 1.5, got %f", meta.Elapsed)
	}
	if meta.Metrics["energy_drift"] != 0.01 {
		t.Errorf("expected drift metric 0.01, got %f", meta.Metrics["energy_drift"])
	}

	samples, err := st.LoadEnergy(runID)
	if err != nil {
		t.Fatalf("load energy failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 measured samples, got %d", len(samples))
	}
	if samples[1].Step != 100 || samples[1].Energy.Potential != -1.61e34 {
		t.Errorf("unexpected sample: %+v", samples[1])
	}

	final, err := st.LoadFinal(runID)
	if err != nil {
		t.Fatalf("load final failed: %v", err)
	}
	want := testResult().Final
	for i := range want {
		if final[i] != want[i] {
			t.Errorf("particle %d: got %+v, want %+v", i, final[i], want[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if _, err := st.Save(name, config.DefaultConfig(), testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "a" || runs[1].Name != "b" {
		t.Errorf("runs not ordered by time: %s, %s", runs[0].Name, runs[1].Name)
	}
}

func TestRunSnapshots(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	cfg := config.DefaultConfig()
	cfg.Snapshots = true

	run, err := st.Create("snap", cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sys, err := dynamo.NewSystem(testResult().Final)
	if err != nil {
		t.Fatal(err)
	}
	for _, step := range []int{0, 100} {
		if err := run.OnOutput(sys, dynamo.Sample{Step: step, Time: float64(step) * 0.01}); err != nil {
			t.Fatalf("observe failed: %v", err)
		}
	}
	if err := run.Finish(testResult()); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if run.Dir() != filepath.Join(tmpDir, run.ID) {
		t.Errorf("unexpected run dir %s", run.Dir())
	}
	records, err := readCSV(filepath.Join(run.Dir(), snapshotsFile))
	if err != nil {
		t.Fatalf("read snapshots failed: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("expected 4 snapshot rows, got %d", len(records))
	}
	if records[2][0] != "100" || records[2][2] != "0" {
		t.Errorf("unexpected row: %v", records[2])
	}
}

func TestStoreCreate_RejectsUnsafeNames(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(filepath.Join(tmpDir, "runs"))

	for _, name := range []string{"", ".", "..", "../../x", "a/b", `a\b`} {
		if _, err := st.Save(name, config.DefaultConfig(), testResult()); !errors.Is(err, ErrInvalidRunName) {
			t.Errorf("%q: expected ErrInvalidRunName, got %v", name, err)
		}
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestRunAbort(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	cfg := config.DefaultConfig()
	cfg.Snapshots = true
	run, err := st.Create("aborted", cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sys, err := dynamo.NewSystem(testResult().Final)
	if err != nil {
		t.Fatal(err)
	}
	if err := run.OnOutput(sys, dynamo.Sample{}); err != nil {
		t.Fatalf("observe failed: %v", err)
	}

	partial := testResult()
	partial.Final = nil
	if err := run.Abort(partial, errors.New("disk full")); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if len(partial.Errors) != 0 {
		t.Error("abort must not modify the caller's result")
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("expected the aborted run to be listed, got %+v", runs)
	}
	if len(runs[0].Errors) != 1 || runs[0].Errors[0] != "disk full" {
		t.Errorf("expected recorded cause, got %v", runs[0].Errors)
	}

	records, err := readCSV(filepath.Join(run.Dir(), snapshotsFile))
	if err != nil {
		t.Fatalf("snapshots not flushed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 snapshot rows, got %d", len(records))
	}

	if err := run.Abort(nil, errors.New("again")); err != nil {
		t.Errorf("abort with nil result failed: %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save("test", config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{metadataFile, energyFile, finalFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
	if _, err := os.Stat(filepath.Join(runDir, snapshotsFile)); !os.IsNotExist(err) {
		t.Errorf("%s created without snapshots enabled", snapshotsFile)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
