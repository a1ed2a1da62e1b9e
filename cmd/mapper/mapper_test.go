package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"badc0de.net/pkg/go-tibia-mapper/mapcache"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
)

func TestParseFloorRange(t *testing.T) {
	cases := []struct {
		in   string
		want []uint8
		ok   bool
	}{
		{"7", []uint8{7}, true},
		{"0-3", []uint8{0, 1, 2, 3}, true},
		{"15-15", []uint8{15}, true},
		{"9-7", nil, false},
		{"seven", nil, false},
		{"1-2-3", nil, false},
		{"", nil, false},
	}
	for _, c := range cases {
		got, err := parseFloorRange(c.in)
		if c.ok != (err == nil) {
			t.Errorf("parseFloorRange(%q) error = %v, want ok=%v", c.in, err, c.ok)
			continue
		}
		if c.ok && !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseFloorRange(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	content := `game_path: /srv/game
sprite_path: /srv/sprites
floors: 0-15
max_zoom: 4
flat: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.GamePath != "/srv/game" || cfg.SpritePath != "/srv/sprites" {
		t.Errorf("paths = %q, %q", cfg.GamePath, cfg.SpritePath)
	}
	if cfg.Floors != "0-15" {
		t.Errorf("Floors = %q", cfg.Floors)
	}
	if cfg.MaxZoom == nil || *cfg.MaxZoom != 4 {
		t.Errorf("MaxZoom = %v, want 4", cfg.MaxZoom)
	}
	if cfg.MinZoom != nil {
		t.Errorf("MinZoom = %v, want unset", cfg.MinZoom)
	}
	if cfg.Flat == nil || !*cfg.Flat {
		t.Errorf("Flat = %v, want true", cfg.Flat)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapper.yaml")
	if err := os.WriteFile(path, []byte("floors: [unterminated"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Errorf("loadConfig succeeded on malformed YAML, want error")
	}
}

func TestLoadFloorCacheStaleOnOriginChange(t *testing.T) {
	mapDir := t.TempDir()
	for _, f := range []string{"1000-1000-07.sec", "0999-1000-08.sec"} {
		if err := os.WriteFile(filepath.Join(mapDir, f), []byte("0-0:Content={100}\n"), 0644); err != nil {
			t.Fatalf("writing sector %s: %v", f, err)
		}
	}

	origCache := *cacheDir
	defer func() { *cacheDir = origCache }()
	*cacheDir = t.TempDir()

	// First build covers floor 7 only, so the cached artifact is
	// normalized against sector origin 1000.
	narrow, err := secmap.Bounds(mapDir, []uint8{7})
	if err != nil {
		t.Fatalf("Bounds(7): %v", err)
	}
	m, err := loadFloor(mapDir, 7, narrow)
	if err != nil {
		t.Fatalf("loadFloor(narrow): %v", err)
	}
	if m.MinSectorX != 1000 || m.Tiles[0].X != 0 {
		t.Fatalf("narrow build: origin %d, tile x %d, want 1000 and 0", m.MinSectorX, m.Tiles[0].X)
	}

	// Second build adds floor 8, which moves the shared origin to
	// sector 999. The cached artifact must not be reused as-is.
	wide, err := secmap.Bounds(mapDir, []uint8{7, 8})
	if err != nil {
		t.Fatalf("Bounds(7,8): %v", err)
	}
	if wide.MinX != 999 {
		t.Fatalf("wide bounds MinX = %d, want 999", wide.MinX)
	}
	m, err = loadFloor(mapDir, 7, wide)
	if err != nil {
		t.Fatalf("loadFloor(wide): %v", err)
	}
	if m.MinSectorX != 999 {
		t.Errorf("wide build reused stale cache: origin = %d, want 999", m.MinSectorX)
	}
	if got := m.Tiles[0].X; got != secmap.SectorSize {
		t.Errorf("wide build tile x = %d, want %d (one sector east of the shared origin)", got, secmap.SectorSize)
	}

	// And the re-parse refreshed the artifact for the next run.
	cached, err := mapcache.LoadFloor(mapcache.FloorPath(*cacheDir, 7))
	if err != nil {
		t.Fatalf("LoadFloor after re-parse: %v", err)
	}
	if cached.MinSectorX != 999 {
		t.Errorf("refreshed artifact origin = %d, want 999", cached.MinSectorX)
	}
}

func TestConfigApply(t *testing.T) {
	origGame, origZoom := *gamePath, *maxZoom
	defer func() { *gamePath = origGame; *maxZoom = origZoom }()

	z := uint(3)
	cfg := &config{GamePath: "/from/config", MaxZoom: &z}
	cfg.apply()

	if *gamePath != "/from/config" {
		t.Errorf("gamePath = %q, want config value", *gamePath)
	}
	if *maxZoom != 3 {
		t.Errorf("maxZoom = %d, want 3", *maxZoom)
	}
}
