package config

import "testing"

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Radius <= 0 {
		t.Errorf("expected a positive default particle radius, got %f", cfg.Particles.Radius)
	}
	if cfg.Derived.DT32 <= 0 {
		t.Errorf("expected DT32 to be derived from Sim.DT, got %f", cfg.Derived.DT32)
	}
}

func TestToParticleConfigConvertsRadius(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pc := cfg.Particles.ToParticleConfig()
	if pc.Radius != float32(cfg.Particles.Radius) {
		t.Errorf("expected radius to convert to float32, got %f want %f", pc.Radius, float32(cfg.Particles.Radius))
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Cfg to panic before Init")
		}
	}()
	global = nil
	Cfg()
}
