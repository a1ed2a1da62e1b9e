// Package flatmap renders the legacy flat-color map: one representative
// object per world tile, painted as a solid scale x scale block. It
// shares the pyramid's directory layout under a flat/ prefix so the
// viewer can swap tile sources without recomputing anything.
package flatmap

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
)

// TileSize is the pixel edge of one output tile.
const TileSize = 256

// Tile is one world tile reduced to its display object.
type Tile struct {
	X        uint32
	Y        uint32
	ObjectID uint32
}

// FlatMapData is a floor reduced to one object per occupied tile.
type FlatMapData struct {
	Floor       uint8
	Tiles       []Tile
	WidthTiles  uint32
	HeightTiles uint32
}

// Flatten reduces each tile stack to the object that best represents it
// on a flat map: the topmost impassable object, else the first ground,
// else the bottom of the stack.
func Flatten(m *secmap.SpriteMapData, catalog objects.Catalog) *FlatMapData {
	flat := &FlatMapData{
		Floor:       m.Floor,
		Tiles:       make([]Tile, 0, len(m.Tiles)),
		WidthTiles:  m.WidthTiles(),
		HeightTiles: m.HeightTiles(),
	}
	for i := range m.Tiles {
		ts := &m.Tiles[i]
		id, ok := selectDisplayObject(ts.ObjectIDs, catalog)
		if !ok {
			continue
		}
		flat.Tiles = append(flat.Tiles, Tile{X: ts.X, Y: ts.Y, ObjectID: id})
	}
	return flat
}

func selectDisplayObject(ids []uint32, catalog objects.Catalog) (uint32, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if obj, ok := catalog[ids[i]]; ok && obj.IsImpassable {
			return ids[i], true
		}
	}
	for _, id := range ids {
		if obj, ok := catalog[id]; ok && obj.IsGround {
			return id, true
		}
	}
	return ids[0], true
}

// ColorMap assigns every catalog object a flat-map color from its name
// and passability.
func ColorMap(catalog objects.Catalog) map[uint32]color.RGBA {
	colors := make(map[uint32]color.RGBA, len(catalog))
	for id, obj := range catalog {
		colors[id] = objectColor(obj.Name, obj.IsGround, obj.IsImpassable)
	}
	return colors
}

func objectColor(name string, isGround, isImpassable bool) color.RGBA {
	rgb := func(r, g, b uint8) color.RGBA {
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	lower := strings.ToLower(name)
	has := func(s string) bool { return strings.Contains(lower, s) }

	switch {
	case has("water") || has("sea"):
		return rgb(33, 66, 99)
	case has("swamp"):
		return rgb(64, 80, 48)
	case has("tar"):
		return rgb(32, 32, 32)
	case has("lava"):
		return rgb(255, 140, 0)
	case has("sand") || has("desert"):
		return rgb(210, 180, 140)
	case has("snow") || has("ice"):
		return rgb(230, 240, 250)
	case has("grass"):
		return rgb(0, 255, 0)
	}

	if isImpassable {
		switch {
		case has("wall") || has("brick"):
			return rgb(255, 0, 0)
		case has("tree") || has("trunk"):
			return rgb(0, 128, 0)
		case has("mountain") || has("stone") || has("rock"):
			return rgb(128, 128, 128)
		}
		return rgb(192, 192, 192)
	}

	if isGround {
		switch {
		case has("dirt") || has("earth") || has("soil"):
			return rgb(165, 42, 42)
		case has("gravel"):
			return rgb(128, 128, 128)
		case has("floor") || has("pavement") || has("cobble"):
			return rgb(169, 169, 169)
		}
		return rgb(144, 238, 144)
	}

	return rgb(0, 0, 0)
}

// Generate renders the flat map at every zoom level in [minZoom, maxZoom]
// under <outputPath>/flat and returns the total number of tiles written.
func Generate(flat *FlatMapData, colors map[uint32]color.RGBA, outputPath string, minZoom, maxZoom uint8) (int, error) {
	total := 0
	for zoom := minZoom; zoom <= maxZoom; zoom++ {
		n, err := renderZoomLevel(flat, colors, outputPath, zoom)
		if err != nil {
			return total, err
		}
		total += n
		glog.V(1).Infof("floor %d: generated %d flat tiles for zoom level %d", flat.Floor, n, zoom)
	}
	return total, nil
}

func renderZoomLevel(flat *FlatMapData, colors map[uint32]color.RGBA, outputPath string, zoom uint8) (int, error) {
	scale := uint32(1) << zoom

	numTilesX := (flat.WidthTiles*scale + TileSize - 1) / TileSize
	numTilesY := (flat.HeightTiles*scale + TileSize - 1) / TileSize

	zoomDir := filepath.Join(outputPath, "flat",
		strconv.Itoa(int(flat.Floor)), strconv.Itoa(int(zoom)))
	if err := os.MkdirAll(zoomDir, 0755); err != nil {
		return 0, errors.Wrapf(err, "creating zoom directory %q", zoomDir)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for tx := uint32(0); tx < numTilesX; tx++ {
		for ty := uint32(0); ty < numTilesY; ty++ {
			tx, ty := tx, ty
			g.Go(func() error {
				img := renderTile(flat, colors, tx, ty, scale)
				return writeTile(zoomDir, tx, ty, img)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return int(numTilesX * numTilesY), nil
}

func renderTile(flat *FlatMapData, colors map[uint32]color.RGBA, tileX, tileY, scale uint32) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	// Unexplored area is black, not transparent.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}

	tileStartX := tileX * TileSize / scale
	tileStartY := tileY * TileSize / scale
	tileEndX := min((tileX+1)*TileSize/scale, flat.WidthTiles)
	tileEndY := min((tileY+1)*TileSize/scale, flat.HeightTiles)

	for i := range flat.Tiles {
		t := &flat.Tiles[i]
		if t.X < tileStartX || t.X >= tileEndX || t.Y < tileStartY || t.Y >= tileEndY {
			continue
		}

		c, ok := colors[t.ObjectID]
		if !ok {
			c = color.RGBA{A: 255}
		}

		px := int((t.X - tileStartX) * scale)
		py := int((t.Y - tileStartY) * scale)
		block := image.Rect(px, py, px+int(scale), py+int(scale)).
			Intersect(out.Bounds())
		for y := block.Min.Y; y < block.Max.Y; y++ {
			for x := block.Min.X; x < block.Max.X; x++ {
				out.SetRGBA(x, y, c)
			}
		}
	}

	return out
}

func writeTile(zoomDir string, tileX, tileY uint32, img *image.RGBA) error {
	xDir := filepath.Join(zoomDir, strconv.FormatUint(uint64(tileX), 10))
	if err := os.MkdirAll(xDir, 0755); err != nil {
		return errors.Wrapf(err, "creating tile directory %q", xDir)
	}

	path := filepath.Join(xDir, strconv.FormatUint(uint64(tileY), 10)+".png")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating tile %q", path)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding tile %q", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "writing tile %q", path)
	}
	return nil
}
