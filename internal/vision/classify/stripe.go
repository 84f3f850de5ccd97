package classify

import (
	"image"

	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// Stripe test sampling constants. These are geometry of the test itself, not
// user-tunable policy: the torso band of a standing person sits roughly in
// the second quarter of the bounding box.
const (
	stripeSampleCount   = 12   // Vertical samples through the torso band
	stripeTorsoTop      = 0.20 // Fraction of box height where the torso starts
	stripeTorsoBottom   = 0.55 // Fraction of box height where the torso ends
	stripeMaxSaturation = 0.25 // Samples above this saturation are coloured cloth, not stripes
	stripeMinContrast   = 0.18 // Minimum lightness range across samples to count at all
	stripeMinSamples    = 6    // Minimum usable low-saturation samples
)

// stripeTransitions samples a vertical strip through the torso region of box
// and counts brightness-polarity transitions among low-saturation samples.
// Referee shirts produce several light/dark alternations of grayscale cloth;
// player jerseys are either saturated colour (rejected by the saturation
// gate) or a single polarity.
func (cl *Classifier) stripeTransitions(box frame.Rect, img image.Image) int {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	cx := (box.MinX + box.MaxX) / 2
	yTop := box.MinY + stripeTorsoTop*box.Height()
	yBot := box.MinY + stripeTorsoBottom*box.Height()

	px := bounds.Min.X + int(cx*float64(w))
	if px < bounds.Min.X {
		px = bounds.Min.X
	}
	if px >= bounds.Max.X {
		px = bounds.Max.X - 1
	}

	// Collect lightness of the low-saturation samples, preserving order.
	light := make([]float64, 0, stripeSampleCount)
	minL, maxL := 1.0, 0.0
	for i := 0; i < stripeSampleCount; i++ {
		fy := yTop + (yBot-yTop)*float64(i)/float64(stripeSampleCount-1)
		py := bounds.Min.Y + int(fy*float64(h))
		if py < bounds.Min.Y || py >= bounds.Max.Y {
			continue
		}
		l, s := lightnessSaturation(img, px, py)
		if s > stripeMaxSaturation {
			continue
		}
		light = append(light, l)
		if l < minL {
			minL = l
		}
		if l > maxL {
			maxL = l
		}
	}

	if len(light) < stripeMinSamples || maxL-minL < stripeMinContrast {
		return 0
	}

	// Polarity against the mid-lightness of the strip; transitions between
	// consecutive usable samples.
	mid := (minL + maxL) / 2
	transitions := 0
	prevBright := light[0] > mid
	for _, l := range light[1:] {
		bright := l > mid
		if bright != prevBright {
			transitions++
			prevBright = bright
		}
	}
	return transitions
}

// lightnessSaturation returns HSL lightness and saturation for the pixel.
func lightnessSaturation(img image.Image, x, y int) (lightness, saturation float64) {
	r16, g16, b16, _ := img.At(x, y).RGBA()
	r := float64(r16) / 65535
	g := float64(g16) / 65535
	b := float64(b16) / 65535

	maxC := max3(r, g, b)
	minC := min3(r, g, b)
	lightness = (maxC + minC) / 2
	if maxC == minC {
		return lightness, 0
	}
	d := maxC - minC
	if lightness > 0.5 {
		saturation = d / (2 - maxC - minC)
	} else {
		saturation = d / (maxC + minC)
	}
	return lightness, saturation
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c float64) float64 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
