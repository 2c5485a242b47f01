// Package site implements the page behaviors of the marketing site as pure
// functions from scroll and viewport state to the visual properties the page
// should apply. Nothing here touches a document; callers apply the results.
package site

import (
	"fmt"
	"math"
)

// Layer is one parallax element moving at a fraction of the scroll speed.
type Layer struct {
	Name  string
	Speed float64
}

// LayerTransform is the vertical offset to apply to a layer.
type LayerTransform struct {
	Name       string
	TranslateY float64
}

// CSS renders the transform as a CSS transform value.
func (t LayerTransform) CSS() string {
	return fmt.Sprintf("translateY(%.2fpx)", t.TranslateY)
}

// ParallaxOffset returns the translateY for an element moving at speed
// relative to the page. Negative scroll positions (overscroll) count as zero.
func ParallaxOffset(scrollY, speed float64) float64 {
	if scrollY < 0 {
		scrollY = 0
	}
	return -scrollY * speed
}

// ParallaxLayers computes the transform of every layer at scrollY.
func ParallaxLayers(scrollY float64, layers []Layer) []LayerTransform {
	out := make([]LayerTransform, len(layers))
	for i, l := range layers {
		out[i] = LayerTransform{Name: l.Name, TranslateY: ParallaxOffset(scrollY, l.Speed)}
	}
	return out
}

// HeroOpacity fades the hero section from 1 at the top of the page to 0 once
// the user has scrolled past heroHeight.
func HeroOpacity(scrollY, heroHeight float64) float64 {
	if heroHeight <= 0 {
		return 1
	}
	return clamp(1-scrollY/heroHeight, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
