package pyramid

import (
	"image"
	"image/color"
	"testing"
)

func TestAlphaBlendTransparentTop(t *testing.T) {
	bottom := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	top := color.NRGBA{R: 200, G: 0, B: 0, A: 0}
	if got := alphaBlend(bottom, top); got != bottom {
		t.Errorf("alphaBlend = %v, want bottom %v", got, bottom)
	}
}

func TestAlphaBlendOpaqueTop(t *testing.T) {
	bottom := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	top := color.NRGBA{R: 200, G: 0, B: 0, A: 255}
	if got := alphaBlend(bottom, top); got != top {
		t.Errorf("alphaBlend = %v, want top %v", got, top)
	}
}

func TestAlphaBlendPartialOverOpaque(t *testing.T) {
	bottom := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	top := color.NRGBA{R: 200, G: 0, B: 0, A: 128}
	got := alphaBlend(bottom, top)

	if got.A != 255 {
		t.Errorf("alpha = %d, want 255 (over opaque bottom)", got.A)
	}
	if got.R <= 100 || got.R >= 200 {
		t.Errorf("red = %d, want strictly between 100 and 200", got.R)
	}
	if got.G <= 0 || got.G >= 100 {
		t.Errorf("green = %d, want strictly between 0 and 100", got.G)
	}
}

func TestAlphaBlendBothTransparent(t *testing.T) {
	got := alphaBlend(color.NRGBA{R: 50, A: 0}, color.NRGBA{R: 70, A: 0})
	if got != (color.NRGBA{}) {
		t.Errorf("alphaBlend of two transparent samples = %v, want zero", got)
	}
}

func TestOverlayWithAlphaClipping(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	overlay := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	red := color.NRGBA{R: 255, A: 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			overlay.SetNRGBA(x, y, red)
		}
	}

	// Top-left corner hangs off the base; only (0,0) lands.
	overlayWithAlpha(base, overlay, -1, -1)
	if got := base.NRGBAAt(0, 0); got != red {
		t.Errorf("(0,0) = %v, want %v", got, red)
	}
	if got := base.NRGBAAt(1, 1); got != (color.NRGBA{}) {
		t.Errorf("(1,1) = %v, want untouched", got)
	}

	// Entirely outside: no effect, no panic.
	overlayWithAlpha(base, overlay, 10, 10)
	overlayWithAlpha(base, overlay, -5, -5)
}

func TestScaleSpriteIdentityAtFullScale(t *testing.T) {
	sprite := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	sprite.SetNRGBA(3, 7, color.NRGBA{R: 9, G: 8, B: 7, A: 255})

	if got := scaleSprite(sprite, 32); got != sprite {
		t.Error("scaleSprite(_, 32) resampled, want the source image returned unchanged")
	}
}

func TestScaleSpriteDimensions(t *testing.T) {
	sprite := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	cases := []struct {
		scale uint32
		want  int
	}{
		{1, 2},
		{4, 8},
		{16, 32},
		{32, 64},
	}
	for _, c := range cases {
		got := scaleSprite(sprite, c.scale)
		if got.Bounds().Dx() != c.want || got.Bounds().Dy() != c.want {
			t.Errorf("scaleSprite(64px, %d) = %dx%d, want %dx%d",
				c.scale, got.Bounds().Dx(), got.Bounds().Dy(), c.want, c.want)
		}
	}
}
