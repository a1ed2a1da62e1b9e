// Package viewer writes the static Leaflet page that browses a finished
// tile tree. Everything the page needs at runtime is baked in at build
// time, so the output directory can be served by any dumb file server.
package viewer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed index.html.tmpl
var indexTemplate string

// TileBounds is the world tile extent covered by the rendered pyramid,
// inclusive on both ends.
type TileBounds struct {
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// The page template is rendered with text/template: every interpolated
// value is a number or a label produced right here, never user input.
type templateData struct {
	Floors       []uint8
	FloorsJSON   string
	MinZoom      uint8
	MaxZoom      uint8
	MinTileX     uint32
	MaxTileX     uint32
	MinTileY     uint32
	MaxTileY     uint32
	DefaultFloor uint8
}

// floorLabel names a floor the way players think of it: 7 is ground
// level, lower numbers are above ground.
func floorLabel(f uint8) string {
	switch {
	case f == 7:
		return fmt.Sprintf("Ground (%d)", f)
	case f < 7:
		return fmt.Sprintf("Sky %d (%d)", 7-f, f)
	default:
		return fmt.Sprintf("Underground %d (%d)", f-7, f)
	}
}

// Generate writes index.html into outputPath for the given floors, zoom
// range and world tile extent.
func Generate(outputPath string, floors []uint8, minZoom, maxZoom uint8, bounds TileBounds) error {
	tmpl, err := template.New("index").
		Funcs(template.FuncMap{"floorLabel": floorLabel}).
		Parse(indexTemplate)
	if err != nil {
		return errors.Wrap(err, "parsing viewer template")
	}

	// []uint8 is []byte to encoding/json, which would base64 it.
	floorInts := make([]int, len(floors))
	for i, f := range floors {
		floorInts[i] = int(f)
	}
	floorsJSON, err := json.Marshal(floorInts)
	if err != nil {
		return errors.Wrap(err, "encoding floor list")
	}

	defaultFloor := uint8(7)
	if len(floors) > 0 {
		defaultFloor = floors[0]
	}

	data := templateData{
		Floors:       floors,
		FloorsJSON:   string(floorsJSON),
		MinZoom:      minZoom,
		MaxZoom:      maxZoom,
		MinTileX:     bounds.MinX,
		MaxTileX:     bounds.MaxX,
		MinTileY:     bounds.MinY,
		MaxTileY:     bounds.MaxY,
		DefaultFloor: defaultFloor,
	}

	path := filepath.Join(outputPath, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return errors.Wrap(err, "rendering viewer page")
	}
	return errors.Wrapf(f.Close(), "writing %q", path)
}
