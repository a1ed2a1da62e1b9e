// Package pyramid renders a floor's sprite map into a zoomable tile
// pyramid: fixed 256x256 PNG rasters laid out as
// <floor>/<zoom>/<tileX>/<tileY>.png.
//
// At zoom level z one world tile covers 2^z output pixels, so the top
// level (zoom 5) reproduces the 32px source sprites losslessly and
// every level below is a Lanczos downsample of them. Output tiles are
// disjoint and rendered in parallel; the only ordering that matters is
// the (y, x) ascending walk over a floor's tile stacks inside each
// output tile, which is what makes the painter's algorithm
// deterministic.
package pyramid

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-tibia-mapper/layers"
	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
	"badc0de.net/pkg/go-tibia-mapper/sprites"
)

// TileSize is the pixel edge of one output tile.
const TileSize = 256

// maxSpritePixels is the largest source sprite footprint: 64px, a 2x2
// tile object. It bounds how far outside an output tile an anchoring
// stack can sit while still painting into it.
const maxSpritePixels = 64

// Generate renders the floor at every zoom level in [minZoom, maxZoom]
// under outputPath and returns the total number of tiles written. An
// I/O failure writing any tile aborts the floor.
func Generate(m *secmap.SpriteMapData, cache *sprites.Cache, catalog objects.Catalog, outputPath string, minZoom, maxZoom uint8) (int, error) {
	total := 0
	for zoom := minZoom; zoom <= maxZoom; zoom++ {
		n, err := renderZoomLevel(m, cache, catalog, outputPath, zoom)
		if err != nil {
			return total, err
		}
		total += n
		glog.V(1).Infof("floor %d: generated %d tiles for zoom level %d", m.Floor, n, zoom)
	}
	return total, nil
}

func renderZoomLevel(m *secmap.SpriteMapData, cache *sprites.Cache, catalog objects.Catalog, outputPath string, zoom uint8) (int, error) {
	scale := uint32(1) << zoom
	mapW, mapH := m.WidthTiles(), m.HeightTiles()

	numTilesX := (mapW*scale + TileSize - 1) / TileSize
	numTilesY := (mapH*scale + TileSize - 1) / TileSize

	zoomDir := filepath.Join(outputPath,
		strconv.Itoa(int(m.Floor)), strconv.Itoa(int(zoom)))
	if err := os.MkdirAll(zoomDir, 0755); err != nil {
		return 0, errors.Wrapf(err, "creating zoom directory %q", zoomDir)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for tx := uint32(0); tx < numTilesX; tx++ {
		for ty := uint32(0); ty < numTilesY; ty++ {
			tx, ty := tx, ty
			g.Go(func() error {
				img := RenderTileImage(m, cache, catalog, tx, ty, scale)
				return writeTile(zoomDir, tx, ty, img)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return int(numTilesX * numTilesY), nil
}

// RenderTileImage composites one 256x256 output tile in memory. Exported
// for preview tooling; rendering a full level goes through Generate.
func RenderTileImage(m *secmap.SpriteMapData, cache *sprites.Cache, catalog objects.Catalog, tileX, tileY, scale uint32) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))

	mapW, mapH := m.WidthTiles(), m.HeightTiles()

	tileStartX := tileX * TileSize / scale
	tileStartY := tileY * TileSize / scale
	tileEndX := min((tileX+1)*TileSize/scale, mapW)
	tileEndY := min((tileY+1)*TileSize/scale, mapH)

	// A stack anchored up to the largest sprite's footprint outside
	// this tile can still paint into it; widen the candidate window by
	// that much, saturating at the world origin.
	pad := (maxSpritePixels + scale - 1) / scale
	searchStartX := saturatingSub(tileStartX, pad)
	searchStartY := saturatingSub(tileStartY, pad)
	searchEndX := tileEndX + pad
	searchEndY := tileEndY + pad

	for i := range m.Tiles {
		ts := &m.Tiles[i]
		if ts.X < searchStartX || ts.X >= searchEndX ||
			ts.Y < searchStartY || ts.Y >= searchEndY {
			continue
		}

		for _, objID := range layers.SelectSpriteLayers(ts.ObjectIDs, catalog) {
			// A disguised object borrows another object's sprite; its
			// own flags already decided the layer above.
			spriteID := objID
			if obj, ok := catalog[objID]; ok && obj.DisguiseTarget != nil {
				spriteID = *obj.DisguiseTarget
			}

			scaled := scaleSprite(cache.Get(spriteID), scale)
			w, h := scaled.Bounds().Dx(), scaled.Bounds().Dy()

			tilesWide := (w + int(scale) - 1) / int(scale)
			tilesHigh := (h + int(scale) - 1) / int(scale)

			// The stack position anchors the sprite's bottom-right
			// occupied tile; step back to its top-left. Signed math:
			// near the world origin the top-left can go negative.
			topLeftX := int(ts.X) - (tilesWide - 1)
			topLeftY := int(ts.Y) - (tilesHigh - 1)
			endX := topLeftX + tilesWide
			endY := topLeftY + tilesHigh

			if topLeftX <= int(tileEndX) && endX > int(tileStartX) &&
				topLeftY <= int(tileEndY) && endY > int(tileStartY) {
				px := (topLeftX - int(tileStartX)) * int(scale)
				py := (topLeftY - int(tileStartY)) * int(scale)
				overlayWithAlpha(out, scaled, px, py)
			}
		}
	}

	return out
}

func writeTile(zoomDir string, tileX, tileY uint32, img *image.NRGBA) error {
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

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
