package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_CarriesIgnoreAndPalettes(t *testing.T) {
	cfg := Default()
	if len(cfg.Ignore) == 0 {
		t.Error("default config has no ignore patterns")
	}
	if cfg.Palette != DefaultPalette || cfg.Secondary != SecondaryPalette || cfg.Concurrent != ConcurrentPalette {
		t.Error("default config does not carry the default palettes")
	}
}

func TestDefault_IgnoreIsACopy(t *testing.T) {
	cfg := Default()
	cfg.Ignore[0] = "changed"
	if DefaultIgnore[0] == "changed" {
		t.Error("mutating a config's ignore list changed the package default")
	}
}

func TestLoad_OverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("ignore:\n  - \"v.x\"\npalette:\n  add: [0.1, 0.2, 0.3]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Ignore) != 1 || cfg.Ignore[0] != "v.x" {
		t.Errorf("ignore = %v, want [v.x]", cfg.Ignore)
	}
	if cfg.Palette.Add != (Color{0.1, 0.2, 0.3}) {
		t.Errorf("palette add = %v, want [0.1 0.2 0.3]", cfg.Palette.Add)
	}
	if cfg.Palette.Del != DefaultPalette.Del {
		t.Error("unset palette field lost its default")
	}
	if cfg.Secondary != SecondaryPalette {
		t.Error("unset secondary palette lost its default")
	}
}

func TestLoad_InvalidIgnorePattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ignore:\n  - \"[unclosed\"\n"), 0644); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid ignore pattern did not return an error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file did not return an error")
	}
}

func TestLoadOrDefault_FallsBack(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") failed: %v", err)
	}
	if cfg.Palette != DefaultPalette {
		t.Error("empty path did not fall back to defaults")
	}

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault on a missing file failed: %v", err)
	}
	if cfg.Palette != DefaultPalette {
		t.Error("missing file did not fall back to defaults")
	}
}

func TestLoadOrDefault_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ignore: []\n"), 0644); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}
	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if len(cfg.Ignore) != 0 {
		t.Errorf("ignore = %v, want an explicit empty list", cfg.Ignore)
	}
}
