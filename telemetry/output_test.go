package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputManagerWritesStepsCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if err := om.WriteStep(StepStats{Tick: 1, ParticleCount: 10}); err != nil {
		t.Fatalf("WriteStep: %v", err)
	}
	if err := om.WriteStep(StepStats{Tick: 2, ParticleCount: 11}); err != nil {
		t.Fatalf("WriteStep: %v", err)
	}
	om.Close()

	data, err := os.ReadFile(filepath.Join(dir, "steps.csv"))
	if err != nil {
		t.Fatalf("reading steps.csv: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty steps.csv")
	}
}

func TestNilOutputManagerIsNoOp(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil OutputManager for empty dir")
	}
	if err := om.WriteStep(StepStats{}); err != nil {
		t.Errorf("expected nil WriteStep on nil manager, got %v", err)
	}
}
