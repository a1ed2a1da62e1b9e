// Command tileprint renders a single map tile (or one sprite) and draws
// it on the terminal. Debugging aid for checking sprite and compositing
// problems without opening the viewer.
package main

import (
	"flag"
	"image"
	"path/filepath"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/nfnt/resize"

	"badc0de.net/pkg/go-tibia-mapper/imageprint"
	"badc0de.net/pkg/go-tibia-mapper/objects"
	"badc0de.net/pkg/go-tibia-mapper/pyramid"
	"badc0de.net/pkg/go-tibia-mapper/secmap"
	"badc0de.net/pkg/go-tibia-mapper/sprites"
)

var (
	gamePath   = flag.String("game_path", "", "path to the game directory (dat/objects.srv, map/*.sec)")
	spritePath = flag.String("sprite_path", "", "path to the directory of per-object sprite PNGs")
	floor      = flag.Uint("floor", 7, "floor to render")
	tileX      = flag.Uint("x", 0, "output tile column at the chosen zoom")
	tileY      = flag.Uint("y", 0, "output tile row at the chosen zoom")
	zoom       = flag.Uint("zoom", 5, "zoom level to render at")
	size       = flag.Uint("size", 64, "edge in pixels the preview is shrunk to for cell art output")
	sprID      = flag.Uint("spr", 0, "print this sprite id instead of rendering a tile")
	col256     = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	blanks     = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
)

func main() {
	flagutil.Parse()

	if *spritePath == "" {
		glog.Exitf("--sprite_path is required")
	}

	cache, err := sprites.NewCache(*spritePath)
	if err != nil {
		glog.Exitf("%v", err)
	}

	if *sprID != 0 {
		out(cache.Get(uint32(*sprID)))
		return
	}

	if *gamePath == "" {
		glog.Exitf("--game_path is required to render a tile")
	}
	if *floor > 255 || *zoom > 8 {
		glog.Exitf("bad --floor %d or --zoom %d", *floor, *zoom)
	}

	catalog, err := objects.ParseCatalog(filepath.Join(*gamePath, "dat", "objects.srv"))
	if err != nil {
		glog.Exitf("%v", err)
	}

	mapDir := filepath.Join(*gamePath, "map")
	f := uint8(*floor)
	bounds, err := secmap.Bounds(mapDir, []uint8{f})
	if err != nil {
		glog.Exitf("%v", err)
	}
	m, err := secmap.ParseFloor(mapDir, f, bounds)
	if err != nil {
		glog.Exitf("%v", err)
	}

	scale := uint32(1) << *zoom
	img := pyramid.RenderTileImage(m, cache, catalog, uint32(*tileX), uint32(*tileY), scale)
	out(img)
}

func out(img image.Image) {
	if imageprint.PrintRasTerm(img) {
		return
	}

	// Cell art doubles up horizontally, so shrink large rasters first.
	if b := img.Bounds(); uint(b.Dx()) > *size {
		img = resize.Resize(uint(*size), 0, img, resize.NearestNeighbor)
	}

	if *col256 {
		imageprint.Print256Color(img, *blanks)
	} else {
		imageprint.Print24bit(img, *blanks)
	}
}
