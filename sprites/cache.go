// Package sprites is a thread safe, lazily populated store of decoded
// object sprites, backed by a directory of fixed size PNG images named
// by object id.
//
// There is deliberately no package level singleton: a Cache is
// constructed once per render command and handed to every rendering
// task explicitly.
package sprites

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	_ "image/png"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SpriteSize is the pixel edge of a source sprite covering one tile.
const SpriteSize = 32

// Cache is safe for concurrent use. Concurrent misses on the same id
// may decode the same file more than once; decoding is deterministic,
// so the duplicate work is harmless and the cache never holds
// inconsistent state. Entries are never evicted within a run.
type Cache struct {
	mu      sync.RWMutex
	sprites map[uint32]*image.NRGBA

	dir     string
	missing *image.NRGBA
}

// NewCache returns a cache over the sprite directory. The directory
// must exist; individual sprites are only touched on first use.
func NewCache(dir string) (*Cache, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "sprite directory %q", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("sprite path %q is not a directory", dir)
	}
	return &Cache{
		sprites: make(map[uint32]*image.NRGBA),
		dir:     dir,
		missing: missingSprite(),
	}, nil
}

// Get returns the sprite for the object id, decoding and caching it on
// first use. A missing or undecodable sprite logs a warning and yields
// the shared placeholder instead: a render must never abort because one
// asset is broken. The returned image must not be modified.
func (c *Cache) Get(id uint32) *image.NRGBA {
	c.mu.RLock()
	sprite, ok := c.sprites[id]
	c.mu.RUnlock()
	if ok {
		return sprite
	}

	sprite, err := c.loadFromDisk(id)
	if err != nil {
		glog.Warningf("failed to load sprite %d: %v; using placeholder", id, err)
		return c.missing
	}

	c.mu.Lock()
	// A concurrent loader may have won the race; keep the first entry
	// so every caller sees the same pointer from here on.
	if prior, ok := c.sprites[id]; ok {
		sprite = prior
	} else {
		c.sprites[id] = sprite
	}
	c.mu.Unlock()
	return sprite
}

// Preload warms the cache for the passed ids in parallel. Missing
// sprites are not failures here, Get already absorbs those.
func (c *Cache) Preload(ids []uint32) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			c.Get(id)
			return nil
		})
	}
	return g.Wait()
}

// Size returns the number of distinct cached sprites.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sprites)
}

func (c *Cache) loadFromDisk(id uint32) (*image.NRGBA, error) {
	path := filepath.Join(c.dir, strconv.FormatUint(uint64(id), 10)+".png")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}

	b := img.Bounds()
	if b.Dx() != SpriteSize || b.Dy() != SpriteSize {
		glog.Warningf("sprite %d has unexpected dimensions %dx%d, want %dx%d",
			id, b.Dx(), b.Dy(), SpriteSize, SpriteSize)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == image.Pt(0, 0) {
		return nrgba, nil
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return nrgba, nil
}

// missingSprite builds the shared placeholder: a 32x32 checkerboard of
// 8px magenta and pink squares.
func missingSprite() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, SpriteSize, SpriteSize))
	for y := 0; y < SpriteSize; y++ {
		for x := 0; x < SpriteSize; x++ {
			var col color.NRGBA
			if (x/8+y/8)%2 == 0 {
				col = color.NRGBA{R: 255, G: 0, B: 255, A: 255}
			} else {
				col = color.NRGBA{R: 255, G: 105, B: 180, A: 255}
			}
			img.SetNRGBA(x, y, col)
		}
	}
	return img
}
