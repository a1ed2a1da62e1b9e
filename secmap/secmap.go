// Package secmap loads the per-sector map files of one floor into a
// normalized, globally aligned list of per-tile object stacks.
//
// A sector is one 32x32 tile chunk of a floor, stored as a text file
// named sectorX-sectorY-floor.sec. World tile coordinates are
// normalized against a single minimum-sector origin shared by every
// floor of a build, so the viewer's registration does not shift when
// switching floors.
package secmap

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SectorSize is the tile span of one sector file in each axis.
const SectorSize = 32

// TileStack is one occupied world tile position and the object ids on
// it, in source file order (bottom first).
type TileStack struct {
	X         uint32   `json:"x"`
	Y         uint32   `json:"y"`
	ObjectIDs []uint32 `json:"object_ids"`
}

// FloorDataVersion is bumped whenever the on-disk shape of
// SpriteMapData changes, so stale cache artifacts get re-parsed.
const FloorDataVersion = 2

// SpriteMapData is one parsed floor. Tiles is sorted ascending by
// (y, x); that ordering is the back-to-front paint order and must be
// preserved by anything that transforms the list.
type SpriteMapData struct {
	Floor      uint8       `json:"floor"`
	Tiles      []TileStack `json:"tiles"`
	MinSectorX uint32      `json:"min_sector_x"`
	MaxSectorX uint32      `json:"max_sector_x"`
	MinSectorY uint32      `json:"min_sector_y"`
	MaxSectorY uint32      `json:"max_sector_y"`
	Version    uint32      `json:"version"`
}

// WidthTiles returns the floor's world tile span on the x axis.
func (m *SpriteMapData) WidthTiles() uint32 {
	return (m.MaxSectorX - m.MinSectorX + 1) * SectorSize
}

// HeightTiles returns the floor's world tile span on the y axis.
func (m *SpriteMapData) HeightTiles() uint32 {
	return (m.MaxSectorY - m.MinSectorY + 1) * SectorSize
}

// SectorBounds is the bounding box of sector coordinates shared by all
// floors of one build.
type SectorBounds struct {
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// Bounds scans mapDir once and returns the sector bounding box across
// all of the passed floors. It fails if the directory is unreadable or
// contains no sector file for any of the floors.
func Bounds(mapDir string, floors []uint8) (SectorBounds, error) {
	entries, err := os.ReadDir(mapDir)
	if err != nil {
		return SectorBounds{}, errors.Wrapf(err, "reading map directory %q", mapDir)
	}

	wanted := make(map[uint8]bool, len(floors))
	for _, f := range floors {
		wanted[f] = true
	}

	b := SectorBounds{MinX: ^uint32(0), MinY: ^uint32(0)}
	found := false
	for _, entry := range entries {
		x, y, z, ok := SectorCoords(entry.Name())
		if !ok || !wanted[z] {
			continue
		}
		found = true
		if x < b.MinX {
			b.MinX = x
		}
		if x > b.MaxX {
			b.MaxX = x
		}
		if y < b.MinY {
			b.MinY = y
		}
		if y > b.MaxY {
			b.MaxY = y
		}
	}
	if !found {
		return SectorBounds{}, errors.Errorf("no sector files for floors %v in %q", floors, mapDir)
	}
	return b, nil
}

// ParseFloor parses every sector file of the floor found in mapDir,
// normalizing tile positions against the passed global bounds. A sector
// file that fails its grammar is skipped with a warning; only
// directory-level failure is an error.
func ParseFloor(mapDir string, floor uint8, bounds SectorBounds) (*SpriteMapData, error) {
	entries, err := os.ReadDir(mapDir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading map directory %q", mapDir)
	}

	suffix := fmt.Sprintf("-%02d.sec", floor)
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	// Per-file parses are independent; fan out, keeping results in
	// directory enumeration order so ties sort deterministically.
	results := make([][]TileStack, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			stacks, err := parseSectorFile(filepath.Join(mapDir, name), bounds.MinX, bounds.MinY)
			if err != nil {
				glog.Warningf("skipping sector %s: %v", name, err)
				return nil
			}
			results[i] = stacks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tiles []TileStack
	for _, stacks := range results {
		tiles = append(tiles, stacks...)
	}

	// Back-to-front paint order: y ascending, then x ascending.
	sort.SliceStable(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})

	return &SpriteMapData{
		Floor:      floor,
		Tiles:      tiles,
		MinSectorX: bounds.MinX,
		MaxSectorX: bounds.MaxX,
		MinSectorY: bounds.MinY,
		MaxSectorY: bounds.MaxY,
		Version:    FloorDataVersion,
	}, nil
}

// SectorCoords decodes a sector filename of the form
// "sectorX-sectorY-floor.sec".
func SectorCoords(filename string) (x, y uint32, z uint8, ok bool) {
	name, found := strings.CutSuffix(filename, ".sec")
	if !found {
		return 0, 0, 0, false
	}
	parts := strings.Split(name, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	px, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	py, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	pz, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint32(px), uint32(py), uint8(pz), true
}

func parseSectorFile(path string, minSectorX, minSectorY uint32) ([]TileStack, error) {
	sectorX, sectorY, _, ok := SectorCoords(filepath.Base(path))
	if !ok {
		return nil, errors.Errorf("bad sector filename %q", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading sector file")
	}

	var tiles []TileStack
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "Content=") {
			continue
		}

		localX, localY, ids, ok := parseContentLine(line)
		if !ok || len(ids) == 0 {
			continue
		}

		tiles = append(tiles, TileStack{
			X:         (sectorX-minSectorX)*SectorSize + localX,
			Y:         (sectorY-minSectorY)*SectorSize + localY,
			ObjectIDs: ids,
		})
	}

	return tiles, nil
}

// parseContentLine decodes "localX-localY:Content={id[,attr...],...}".
// Only the leading numeric token of each comma separated entry matters;
// attribute entries (String="...", amounts and the like) are ignored.
func parseContentLine(line string) (localX, localY uint32, ids []uint32, ok bool) {
	// Split only on the first colon: String attributes can contain
	// colons of their own.
	posPart, contentPart, found := strings.Cut(line, ":")
	if !found {
		return 0, 0, nil, false
	}

	coords := strings.Split(posPart, "-")
	if len(coords) != 2 {
		return 0, 0, nil, false
	}
	x, err := strconv.ParseUint(strings.TrimSpace(coords[0]), 10, 32)
	if err != nil {
		return 0, 0, nil, false
	}
	y, err := strconv.ParseUint(strings.TrimSpace(coords[1]), 10, 32)
	if err != nil {
		return 0, 0, nil, false
	}

	lbrace := strings.Index(contentPart, "{")
	rbrace := strings.Index(contentPart, "}")
	if lbrace < 0 || rbrace < 0 || rbrace < lbrace {
		return 0, 0, nil, false
	}

	for _, entry := range strings.Split(contentPart[lbrace+1:rbrace], ",") {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}

	return uint32(x), uint32(y), ids, true
}
