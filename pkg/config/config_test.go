package config_test

import (
	"path/filepath"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := config.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.cfg"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Target.Variant != "triangle" {
		t.Fatalf("Target.Variant = %q, want default", cfg.Target.Variant)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Target.Variant = "optee"
	cfg.Device.Name = "pixel6"

	path := filepath.Join(t.TempDir(), "fuzz.cfg")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Target.Variant != "optee" || loaded.Device.Name != "pixel6" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestExecutorAddrEnvOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	path := filepath.Join(t.TempDir(), "fuzz.cfg")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("TEEZZ_EXECUTOR_ADDR", "10.0.0.5:9999")
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Executor.Addr != "10.0.0.5:9999" {
		t.Fatalf("Executor.Addr = %q, want env override", loaded.Executor.Addr)
	}
}

func TestValidateRejectsUnknownVariant(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Target.Variant = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestValidateRejectsBadMutationProb(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Campaign.MutationDeleteProb = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range mutation_delete_prob")
	}
}
