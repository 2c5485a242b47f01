package site

import (
	"sort"
	"strings"
)

// FilterAll is the gallery filter that shows every item.
const FilterAll = "all"

// GalleryItem is one image in the gallery.
type GalleryItem struct {
	ID       string
	Src      string
	Title    string
	Category string
}

// ItemVisibility is the filtered display state of a gallery item.
type ItemVisibility struct {
	ID      string
	Visible bool
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// FilterGallery returns the visibility of every item for category. The
// match is case-insensitive; an empty category behaves like FilterAll.
func FilterGallery(items []GalleryItem, category string) []ItemVisibility {
	category = normalizeCategory(category)
	out := make([]ItemVisibility, len(items))
	for i, it := range items {
		out[i] = ItemVisibility{
			ID:      it.ID,
			Visible: category == "" || category == FilterAll || normalizeCategory(it.Category) == category,
		}
	}
	return out
}

// VisibleCount counts the visible items in states.
func VisibleCount(states []ItemVisibility) int {
	n := 0
	for _, s := range states {
		if s.Visible {
			n++
		}
	}
	return n
}

// Categories returns the distinct lower-cased item categories, sorted, for
// building the filter buttons.
func Categories(items []GalleryItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		c := normalizeCategory(it.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
