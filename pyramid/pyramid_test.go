package pyramid

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
	"badc0de.net/pkg/go-tibia-mapper/sprites"
)

func normalObject(id uint32) *objects.GameObject {
	return &objects.GameObject{ID: id, Name: "thing", Flags: []string{"Unmove"}, IsImpassable: true}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

// patternSprite fills a size x size sprite with a position-dependent
// opaque pattern so misplacement shows up in any pixel.
func patternSprite(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 7), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func singleSectorMap(tiles []secmap.TileStack) *secmap.SpriteMapData {
	return &secmap.SpriteMapData{
		Floor:      7,
		Tiles:      tiles,
		MinSectorX: 1000,
		MaxSectorX: 1000,
		MinSectorY: 900,
		MaxSectorY: 900,
		Version:    secmap.FloorDataVersion,
	}
}

func newCache(t *testing.T, dir string) *sprites.Cache {
	t.Helper()
	c, err := sprites.NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func TestRenderTileImageLosslessAtFullScale(t *testing.T) {
	dir := t.TempDir()
	src := patternSprite(32)
	writePNG(t, filepath.Join(dir, "100.png"), src)

	catalog := objects.Catalog{100: normalObject(100)}
	m := singleSectorMap([]secmap.TileStack{{X: 5, Y: 5, ObjectIDs: []uint32{100}}})

	// Scale 32: one world tile is 32px, sprites composite 1:1.
	out := RenderTileImage(m, newCache(t, dir), catalog, 0, 0, 32)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			want := src.NRGBAAt(x, y)
			if got := out.NRGBAAt(5*32+x, 5*32+y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", 5*32+x, 5*32+y, got, want)
			}
		}
	}

	// Neighboring tiles stay transparent.
	if got := out.NRGBAAt(5*32-1, 5*32); got != (color.NRGBA{}) {
		t.Errorf("pixel left of the sprite = %v, want transparent", got)
	}
	if got := out.NRGBAAt(6*32, 5*32); got != (color.NRGBA{}) {
		t.Errorf("pixel right of the sprite = %v, want transparent", got)
	}
}

func TestRenderTileImageAnchorBackOffset(t *testing.T) {
	dir := t.TempDir()
	// A 64px sprite occupies 2x2 tiles; its anchor is the bottom-right
	// tile, so anchored at (3,3) it covers tiles (2,2)..(3,3).
	quads := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			quads.SetNRGBA(x, y, color.NRGBA{R: uint8(x / 32 * 200), G: uint8(y / 32 * 200), B: 50, A: 255})
		}
	}
	writePNG(t, filepath.Join(dir, "100.png"), quads)

	catalog := objects.Catalog{100: normalObject(100)}
	m := singleSectorMap([]secmap.TileStack{{X: 3, Y: 3, ObjectIDs: []uint32{100}}})

	out := RenderTileImage(m, newCache(t, dir), catalog, 0, 0, 32)

	// Top-left quadrant of the sprite lands on tile (2,2).
	if got := out.NRGBAAt(2*32, 2*32); got != (color.NRGBA{R: 0, G: 0, B: 50, A: 255}) {
		t.Errorf("tile (2,2) pixel = %v, want sprite top-left quadrant", got)
	}
	// Bottom-right quadrant on the anchor tile (3,3).
	if got := out.NRGBAAt(3*32+16, 3*32+16); got != (color.NRGBA{R: 200, G: 200, B: 50, A: 255}) {
		t.Errorf("tile (3,3) pixel = %v, want sprite bottom-right quadrant", got)
	}
	// Tile (4,4) is past the footprint.
	if got := out.NRGBAAt(4*32, 4*32); got != (color.NRGBA{}) {
		t.Errorf("tile (4,4) pixel = %v, want transparent", got)
	}
}

func TestRenderTileImageOriginStraddleDrawsOnce(t *testing.T) {
	dir := t.TempDir()
	// Semi-transparent 64px sprite anchored at the world origin: its
	// top-left offset goes negative and the search window saturates at
	// zero. Compositing it twice would darken the alpha visibly.
	half := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			half.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 128})
		}
	}
	writePNG(t, filepath.Join(dir, "100.png"), half)

	catalog := objects.Catalog{100: normalObject(100)}
	m := singleSectorMap([]secmap.TileStack{{X: 0, Y: 0, ObjectIDs: []uint32{100}}})

	out := RenderTileImage(m, newCache(t, dir), catalog, 0, 0, 32)

	// Only the bottom-right quadrant of the sprite is inside the world;
	// it must carry the source alpha, not a double-blended one.
	if got := out.NRGBAAt(10, 10).A; got != 128 {
		t.Errorf("alpha at (10,10) = %d, want 128 (blended exactly once)", got)
	}
}

func TestRenderTileImageDisguiseUsesTargetSprite(t *testing.T) {
	dir := t.TempDir()
	red := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	blue := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			red.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			blue.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	writePNG(t, filepath.Join(dir, "100.png"), red)
	writePNG(t, filepath.Join(dir, "200.png"), blue)

	target := uint32(200)
	disguised := normalObject(100)
	disguised.DisguiseTarget = &target
	catalog := objects.Catalog{100: disguised, 200: normalObject(200)}
	m := singleSectorMap([]secmap.TileStack{{X: 1, Y: 1, ObjectIDs: []uint32{100}}})

	out := RenderTileImage(m, newCache(t, dir), catalog, 0, 0, 32)

	if got := out.NRGBAAt(32+5, 32+5); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("pixel = %v, want the disguise target's blue sprite", got)
	}
}

func TestRenderTileImagePaintOrder(t *testing.T) {
	dir := t.TempDir()
	// Two stacks on adjacent rows whose sprites overlap the same pixel
	// would need 64px sprites; instead overlap within one stack: ground
	// below, opaque item above.
	green := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	gray := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			green.SetNRGBA(x, y, color.NRGBA{G: 255, A: 255})
			gray.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	writePNG(t, filepath.Join(dir, "101.png"), green)
	writePNG(t, filepath.Join(dir, "500.png"), gray)

	catalog := objects.Catalog{
		101: {ID: 101, Name: "grass", Waypoints: 100, IsGround: true},
		500: normalObject(500),
	}
	// Item listed before the ground in the raw stack; classification
	// still draws ground first.
	m := singleSectorMap([]secmap.TileStack{{X: 2, Y: 2, ObjectIDs: []uint32{500, 101}}})

	out := RenderTileImage(m, newCache(t, dir), catalog, 0, 0, 32)

	if got := out.NRGBAAt(2*32+8, 2*32+8); got != (color.NRGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Errorf("pixel = %v, want the normal-layer item on top of ground", got)
	}
}

func TestGenerateTreeLayout(t *testing.T) {
	spriteDir := t.TempDir()
	writePNG(t, filepath.Join(spriteDir, "100.png"), patternSprite(32))

	catalog := objects.Catalog{100: normalObject(100)}
	m := singleSectorMap([]secmap.TileStack{{X: 5, Y: 5, ObjectIDs: []uint32{100}}})

	out := t.TempDir()
	n, err := Generate(m, newCache(t, spriteDir), catalog, out, 0, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 32 world tiles: zoom 0 -> 32px extent -> 1 tile; zoom 1 -> 64px
	// extent -> 1 tile.
	if n != 2 {
		t.Errorf("Generate wrote %d tiles, want 2", n)
	}

	for _, zoom := range []string{"0", "1"} {
		path := filepath.Join(out, "7", zoom, "0", "0.png")
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("missing tile %s: %v", path, err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
		if cfg.Width != TileSize || cfg.Height != TileSize {
			t.Errorf("%s is %dx%d, want %dx%d", path, cfg.Width, cfg.Height, TileSize, TileSize)
		}
	}
}

func TestGenerateGridCount(t *testing.T) {
	spriteDir := t.TempDir()
	writePNG(t, filepath.Join(spriteDir, "100.png"), patternSprite(32))

	catalog := objects.Catalog{100: normalObject(100)}
	m := &secmap.SpriteMapData{
		Floor:      3,
		Tiles:      []secmap.TileStack{{X: 0, Y: 0, ObjectIDs: []uint32{100}}},
		MinSectorX: 0, MaxSectorX: 1,
		MinSectorY: 0, MaxSectorY: 0,
		Version: secmap.FloorDataVersion,
	}

	// 64x32 world tiles at zoom 4 (scale 16): 1024x512 px -> 4x2 tiles.
	n, err := Generate(m, newCache(t, spriteDir), catalog, t.TempDir(), 4, 4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n != 8 {
		t.Errorf("Generate wrote %d tiles, want 8", n)
	}
}
