package capture

import (
	"image"
	"math"
)

// Aspect is a target content ratio (width:height). Zero means full frame.
type Aspect struct {
	W, H float64
}

// IsZero reports whether no fixed ratio is configured.
func (a Aspect) IsZero() bool { return a.W == 0 || a.H == 0 }

// Ratios names the selectable aspect ratios, including the cinema formats
// the strip is typically used with.
var Ratios = map[string]Aspect{
	"16:9":   {16, 9},
	"16:10":  {16, 10},
	"21:9":   {21, 9},
	"32:9":   {32, 9},
	"4:3":    {4, 3},
	"2.35:1": {2.35, 1},
	"2.39:1": {2.39, 1},
	"1:1":    {1, 1},
}

// minCropDim guards against degenerate crops; below this the cropper no-ops.
const minCropDim = 4

// DefaultLumaThreshold is the mean row/column luminance (0..255) under which
// a band counts as letterbox black.
const DefaultLumaThreshold = 16.0

// CropRatio returns the centered sub-rectangle of img matching ratio a,
// discarding symmetric margins. A frame already at the target ratio (within
// 1%) passes through unchanged, as does any crop that would drop below
// minCropDim pixels.
func CropRatio(img *image.RGBA, a Aspect) *image.RGBA {
	if a.IsZero() {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}
	target := a.W / a.H
	current := float64(w) / float64(h)
	if math.Abs(target-current) < 0.01 {
		return img
	}

	cw, ch := w, h
	if target > current {
		// Wider content: letterbox bands top and bottom.
		ch = int(float64(w)/target + 0.5)
	} else {
		// Narrower content: pillarbox bands left and right.
		cw = int(float64(h)*target + 0.5)
	}
	if cw < minCropDim || ch < minCropDim {
		return img
	}
	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2
	return img.SubImage(image.Rect(x0, y0, x0+cw, y0+ch)).(*image.RGBA)
}

// CropAuto detects near-black letterbox/pillarbox bands along the frame
// borders and strips them. Bands are kept symmetric (the smaller of the two
// opposing bands wins) and never consume more than 45% of a dimension. A
// frame with no bands passes through unchanged.
func CropAuto(img *image.RGBA, lumaThreshold float64) *image.RGBA {
	if lumaThreshold <= 0 {
		lumaThreshold = DefaultLumaThreshold
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < minCropDim || h < minCropDim {
		return img
	}

	maxV := int(float64(h) * 0.45)
	maxH := int(float64(w) * 0.45)

	top := 0
	for top < maxV && rowLuma(img, b.Min.Y+top) < lumaThreshold {
		top++
	}
	bottom := 0
	for bottom < maxV && rowLuma(img, b.Max.Y-1-bottom) < lumaThreshold {
		bottom++
	}
	left := 0
	for left < maxH && colLuma(img, b.Min.X+left) < lumaThreshold {
		left++
	}
	right := 0
	for right < maxH && colLuma(img, b.Max.X-1-right) < lumaThreshold {
		right++
	}

	v := min(top, bottom)
	hz := min(left, right)
	if v == 0 && hz == 0 {
		return img
	}
	if w-2*hz < minCropDim || h-2*v < minCropDim {
		return img
	}
	r := image.Rect(b.Min.X+hz, b.Min.Y+v, b.Max.X-hz, b.Max.Y-v)
	return img.SubImage(r).(*image.RGBA)
}

// rowLuma is the mean of R+G+B/3 across one row, computed over the raw pixel
// slice.
func rowLuma(img *image.RGBA, y int) float64 {
	b := img.Bounds()
	row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
	var sum uint64
	for i := 0; i+3 < len(row); i += 4 {
		sum += uint64(row[i]) + uint64(row[i+1]) + uint64(row[i+2])
	}
	n := b.Dx()
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n*3)
}

func colLuma(img *image.RGBA, x int) float64 {
	b := img.Bounds()
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(x, y)
		sum += uint64(img.Pix[off]) + uint64(img.Pix[off+1]) + uint64(img.Pix[off+2])
	}
	n := b.Dy()
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n*3)
}
