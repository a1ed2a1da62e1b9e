package pyramid

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"badc0de.net/pkg/go-tibia-mapper/sprites"
)

// alphaBlend composites top over bottom ("source-over") on straight,
// non-premultiplied samples.
func alphaBlend(bottom, top color.NRGBA) color.NRGBA {
	alphaTop := float32(top.A) / 255

	if alphaTop == 0 {
		return bottom
	}
	if alphaTop == 1 {
		return top
	}

	alphaBottom := float32(bottom.A) / 255
	alphaOut := alphaTop + alphaBottom*(1-alphaTop)
	if alphaOut == 0 {
		return color.NRGBA{}
	}

	blend := func(b, t uint8) uint8 {
		bf := float32(b) / 255
		tf := float32(t) / 255
		out := (tf*alphaTop + bf*alphaBottom*(1-alphaTop)) / alphaOut
		return uint8(out * 255)
	}

	return color.NRGBA{
		R: blend(bottom.R, top.R),
		G: blend(bottom.G, top.G),
		B: blend(bottom.B, top.B),
		A: uint8(alphaOut * 255),
	}
}

// overlayWithAlpha draws overlay onto base with its top-left corner at
// (xOff, yOff), alpha blending per pixel. Parts falling outside the
// base raster are clipped.
func overlayWithAlpha(base, overlay *image.NRGBA, xOff, yOff int) {
	ob := overlay.Bounds()
	bb := base.Bounds()

	for y := 0; y < ob.Dy(); y++ {
		baseY := yOff + y
		if baseY < 0 || baseY >= bb.Dy() {
			continue
		}
		for x := 0; x < ob.Dx(); x++ {
			baseX := xOff + x
			if baseX < 0 || baseX >= bb.Dx() {
				continue
			}
			blended := alphaBlend(base.NRGBAAt(baseX, baseY), overlay.NRGBAAt(ob.Min.X+x, ob.Min.Y+y))
			base.SetNRGBA(baseX, baseY, blended)
		}
	}
}

// scaleSprite resamples a source sprite so that one world tile's worth
// of source pixels covers scale output pixels. At scale 32 the source
// is returned untouched, byte for byte.
func scaleSprite(sprite *image.NRGBA, scale uint32) *image.NRGBA {
	b := sprite.Bounds()
	factor := float32(scale) / sprites.SpriteSize
	newW := uint(float32(b.Dx())*factor + 0.5)
	newH := uint(float32(b.Dy())*factor + 0.5)

	if int(newW) == b.Dx() && int(newH) == b.Dy() {
		return sprite
	}

	scaled := resize.Resize(newW, newH, sprite, resize.Lanczos3)
	if nrgba, ok := scaled.(*image.NRGBA); ok {
		return nrgba
	}
	// resize keeps NRGBA inputs NRGBA; this is a safety net only.
	out := image.NewNRGBA(scaled.Bounds())
	for y := scaled.Bounds().Min.Y; y < scaled.Bounds().Max.Y; y++ {
		for x := scaled.Bounds().Min.X; x < scaled.Bounds().Max.X; x++ {
			out.Set(x, y, scaled.At(x, y))
		}
	}
	return out
}
