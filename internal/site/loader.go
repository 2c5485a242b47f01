package site

import "time"

// LoadingScreen tracks the page loader overlay. It stays fully visible until
// the page has loaded and the minimum display time has passed, then fades out.
type LoadingScreen struct {
	shownAt    time.Time
	minDisplay time.Duration
	fade       time.Duration
	loadedAt   *time.Time
}

// NewLoadingScreen creates a loader shown at shownAt.
func NewLoadingScreen(shownAt time.Time, minDisplay, fade time.Duration) *LoadingScreen {
	return &LoadingScreen{shownAt: shownAt, minDisplay: minDisplay, fade: fade}
}

// Loaded records the load-complete event. Only the first call counts.
func (s *LoadingScreen) Loaded(at time.Time) {
	if s.loadedAt == nil {
		s.loadedAt = &at
	}
}

// fadeStart is when the fade begins, or false if the page has not loaded.
func (s *LoadingScreen) fadeStart() (time.Time, bool) {
	if s.loadedAt == nil {
		return time.Time{}, false
	}
	start := *s.loadedAt
	if earliest := s.shownAt.Add(s.minDisplay); start.Before(earliest) {
		start = earliest
	}
	return start, true
}

// Opacity is the overlay opacity at now, from 1 down to 0.
func (s *LoadingScreen) Opacity(now time.Time) float64 {
	start, ok := s.fadeStart()
	if !ok || now.Before(start) {
		return 1
	}
	if s.fade <= 0 {
		return 0
	}
	return clamp(1-float64(now.Sub(start))/float64(s.fade), 0, 1)
}

// Hidden reports whether the overlay has fully faded and can be removed.
func (s *LoadingScreen) Hidden(now time.Time) bool {
	start, ok := s.fadeStart()
	if !ok {
		return false
	}
	return !now.Before(start.Add(s.fade))
}
