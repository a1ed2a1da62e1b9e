// Package mapcache persists parsed intermediate artifacts (the object
// catalog and per-floor sector data) as JSON between invocations, so a
// rebuild can skip straight to rendering.
package mapcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
)

// DefaultDir is the cache directory used when none is configured.
const DefaultDir = ".mapper-cache"

// CatalogPath returns the location of the cached object catalog.
func CatalogPath(cacheDir string) string {
	return filepath.Join(cacheDir, "objects.json")
}

// FloorPath returns the location of one floor's cached sector data.
func FloorPath(cacheDir string, floor uint8) string {
	return filepath.Join(cacheDir, "maps", fmt.Sprintf("floor_%02d_sprite.json", floor))
}

// LoadCatalog reads a cached catalog. It returns os.ErrNotExist (wrapped)
// when there is no cached artifact.
func LoadCatalog(path string) (objects.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading cached catalog")
	}
	var catalog objects.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrapf(err, "decoding cached catalog %q", path)
	}
	return catalog, nil
}

// StoreCatalog writes the catalog artifact, creating the cache
// directory as needed.
func StoreCatalog(path string, catalog objects.Catalog) error {
	return writeJSON(path, catalog)
}

// LoadFloor reads one floor's cached sector data. A version mismatch is
// reported as an error so the caller re-parses.
func LoadFloor(path string) (*secmap.SpriteMapData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading cached floor")
	}
	var m secmap.SpriteMapData
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding cached floor %q", path)
	}
	if m.Version != secmap.FloorDataVersion {
		return nil, errors.Errorf("cached floor %q has version %d, want %d", path, m.Version, secmap.FloorDataVersion)
	}
	return &m, nil
}

// StoreFloor writes one floor's sector data artifact.
func StoreFloor(path string, m *secmap.SpriteMapData) error {
	return writeJSON(path, m)
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating cache directory for %q", path)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %q", path)
	}
	glog.V(1).Infof("cached %s (%d bytes)", path, len(data))
	return nil
}
