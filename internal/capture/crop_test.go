package capture

import (
	"image"
	"testing"
)

func fill(img *image.RGBA, r image.Rectangle, v uint8) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off+0] = v
			img.Pix[off+1] = v
			img.Pix[off+2] = v
			img.Pix[off+3] = 255
		}
	}
}

func TestCropRatioLetterbox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	got := CropRatio(img, Ratios["21:9"])
	b := got.Bounds()
	if b.Dx() != 1920 || b.Dy() != 823 {
		t.Fatalf("bounds = %dx%d, want 1920x823", b.Dx(), b.Dy())
	}
	if b.Min.Y != 128 {
		t.Fatalf("crop not centered: Min.Y = %d, want 128", b.Min.Y)
	}
}

func TestCropRatioPillarbox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	got := CropRatio(img, Ratios["4:3"])
	b := got.Bounds()
	if b.Dx() != 1440 || b.Dy() != 1080 {
		t.Fatalf("bounds = %dx%d, want 1440x1080", b.Dx(), b.Dy())
	}
	if b.Min.X != 240 {
		t.Fatalf("crop not centered: Min.X = %d, want 240", b.Min.X)
	}
}

func TestCropRatioNoopAtTarget(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	if got := CropRatio(img, Ratios["16:9"]); got != img {
		t.Fatal("frame already at target ratio should pass through")
	}
	if got := CropRatio(img, Aspect{}); got != img {
		t.Fatal("zero aspect should pass through")
	}
}

func TestCropRatioGuardsTinyFrames(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 3))
	if got := CropRatio(img, Ratios["1:1"]); got != img {
		t.Fatal("crop below minimum dimension should no-op")
	}
}

func TestCropAutoLetterbox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), 255)
	fill(img, image.Rect(0, 0, 200, 10), 0)   // top band
	fill(img, image.Rect(0, 90, 200, 100), 0) // bottom band

	got := CropAuto(img, 0)
	b := got.Bounds()
	if b.Dx() != 200 || b.Dy() != 80 || b.Min.Y != 10 {
		t.Fatalf("bounds = %v, want 200x80 at y=10", b)
	}
}

func TestCropAutoSymmetric(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), 255)
	fill(img, image.Rect(0, 0, 200, 10), 0)   // top band
	fill(img, image.Rect(0, 96, 200, 100), 0) // thinner bottom band

	// The smaller of the two opposing bands wins, keeping the crop centered.
	got := CropAuto(img, 0)
	if got.Bounds().Dy() != 92 {
		t.Fatalf("Dy = %d, want 92", got.Bounds().Dy())
	}
}

func TestCropAutoNoBands(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), 200)
	if got := CropAuto(img, 0); got != img {
		t.Fatal("frame without bands should pass through")
	}
}

func TestCropAutoCapsBandDepth(t *testing.T) {
	// A fully black frame must not collapse: band scan stops at 45% per side.
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	got := CropAuto(img, 0)
	b := got.Bounds()
	if b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %dx%d, want 20x10", b.Dx(), b.Dy())
	}
}
