package site

import "math"

// Section is a page section the navigation links to. Top is the section's
// offset from the top of the document in pixels.
type Section struct {
	ID  string
	Top float64
}

// ActiveSection returns the ID of the section the navigation should
// highlight: the last section whose top, less offset, is at or above scrollY.
// Sections may be given in any order. It returns "" before the first section.
func ActiveSection(sections []Section, scrollY, offset float64) string {
	active := ""
	best := math.Inf(-1)
	for _, s := range sections {
		top := s.Top - offset
		if scrollY >= top && top > best {
			best = top
			active = s.ID
		}
	}
	return active
}

// NavScrolled reports whether the header should switch to its compact
// "scrolled" style.
func NavScrolled(scrollY, threshold float64) bool {
	return scrollY > threshold
}

// BackToTopVisible reports whether the back-to-top control should show.
func BackToTopVisible(scrollY, threshold float64) bool {
	return scrollY > threshold
}

// ScrollToTopSteps returns the scroll positions of a smooth scroll from
// `from` to 0 over steps frames, eased in and out. The last position is
// always 0.
func ScrollToTopSteps(from float64, steps int) []float64 {
	if steps <= 0 || from <= 0 {
		return []float64{0}
	}
	out := make([]float64, steps)
	for i := 1; i <= steps; i++ {
		p := float64(i) / float64(steps)
		out[i-1] = from * (1 - easeInOutCubic(p))
	}
	out[steps-1] = 0
	return out
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
