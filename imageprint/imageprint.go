// Package imageprint prints rendered map tiles on the terminal.
// UNSUPPORTED debug package.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"fmt"
	"image"
	ic "image/color"
	"os"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/gookit/color"
)

// cell picks the two-character glyph for one pixel. With blanks the
// cell is colored whitespace; otherwise the glyph encodes brightness so
// the art survives a monochrome paste.
func cell(cR, cG, cB uint32, blanks bool) string {
	if blanks {
		return "  "
	}
	switch a := ((cR + cG + cB) / 3) >> 8; {
	case a < 32:
		return ".."
	case a < 64:
		return "--"
	case a < 128:
		return "=="
	default:
		return "##"
	}
}

func shade(col ic.Color, trueColor, blanks bool) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		fmt.Printf("\x1b[0m  ")
		return
	}
	glyph := cell(cR, cG, cB, blanks)
	r, g, b := uint8(cR>>8), uint8(cG>>8), uint8(cB>>8)
	if trueColor {
		fmt.Printf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, glyph)
	} else {
		color.RGB(r, g, b, true).Printf("%s", glyph)
	}
}

// Print256Color draws an image using 256color'd ascii art.
func Print256Color(i image.Image, blanks bool) {
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			shade(i.At(x, y), false, blanks)
		}
		fmt.Printf("\x1b[0m\n")
	}
}

// Print24bit draws an image using 24bit color escape sequences by
// changing background.
func Print24bit(i image.Image, blanks bool) {
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			shade(i.At(x, y), true, blanks)
		}
		fmt.Printf("\x1b[0m\n")
	}
}

// PrintRasTerm draws an image using the terminal's native raster
// protocol: Kitty, iTerm2/WezTerm, or sixel with a median-cut 64 color
// quantization. Returns false when the terminal supports none of them.
func PrintRasTerm(i image.Image) bool {
	if rasterm.IsTermKitty() {
		rasterm.Settings{}.KittyWriteImage(os.Stdout, i)
		fmt.Printf("\n")
		return true
	}
	if rasterm.IsTermItermWez() {
		rasterm.Settings{}.ItermWriteImage(os.Stdout, i)
		fmt.Printf("\n")
		return true
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		palettedImage := image.NewPaletted(i.Bounds(), nil)
		quantizer := gogif.MedianCutQuantizer{NumColor: 64}
		quantizer.Quantize(palettedImage, i.Bounds(), i, image.Point{})

		rasterm.Settings{}.SixelWriteImage(os.Stdout, palettedImage)
		fmt.Printf("\n")
		return true
	}
	return false
}

// Print draws the image with the best method the terminal supports,
// falling back to 24bit cell art.
func Print(i image.Image) {
	if !PrintRasTerm(i) {
		Print24bit(i, true)
	}
}
