package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/internal/site"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

var (
	simulateScroll   []float64
	simulateViewport float64
	simulateDocument float64
	simulateFilter   string
	simulateInterval time.Duration
)

// demoGallery is the gallery the simulation filters.
var demoGallery = []site.GalleryItem{
	{ID: "g1", Src: "img/forest.jpg", Title: "Forest", Category: "nature"},
	{ID: "g2", Src: "img/skyline.jpg", Title: "Skyline", Category: "city"},
	{ID: "g3", Src: "img/coast.jpg", Title: "Coast", Category: "nature"},
	{ID: "g4", Src: "img/portrait.jpg", Title: "Portrait", Category: "people"},
	{ID: "g5", Src: "img/bridge.jpg", Title: "Bridge", Category: "city"},
}

var simulateHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

type simulateOptions struct {
	scroll   []float64
	viewport float64
	document float64
	filter   string
	interval time.Duration
	start    time.Time
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a page visit through the page behaviors",
	Long: `Replay a page visit: the loader, a sequence of scroll positions and an
optional gallery filter. For every scroll position the parallax offset, hero
opacity, active navigation section and back-to-top visibility are printed,
and scroll depth milestones are tracked by the analytics counters.

Every step is recorded in the diagnostic log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.OutOrStdout(), simulateOptions{
			scroll:   simulateScroll,
			viewport: simulateViewport,
			document: simulateDocument,
			filter:   simulateFilter,
			interval: simulateInterval,
			start:    time.Now(),
		})
	},
}

func runSimulation(w io.Writer, opts simulateOptions) error {
	if Logger == nil || Analytics == nil {
		return fmt.Errorf("logger not initialized")
	}
	if opts.viewport <= 0 || opts.document <= 0 {
		return fmt.Errorf("viewport and document heights must be positive")
	}

	cfg := models.DefaultConfig().Site
	if Config != nil {
		cfg = Config.Site
	}

	Logger.StartPerformance("simulate")

	loader := site.NewLoadingScreen(opts.start,
		time.Duration(cfg.LoaderMinDisplayMS)*time.Millisecond,
		time.Duration(cfg.LoaderFadeMS)*time.Millisecond)
	loader.Loaded(opts.start)
	Logger.Info("Page loaded", map[string]any{"url": cfg.URL})
	Analytics.TrackPageView(cfg.URL)

	sections := make([]site.Section, len(cfg.Sections))
	for i, id := range cfg.Sections {
		sections[i] = site.Section{ID: id, Top: float64(i) * opts.document / float64(len(cfg.Sections))}
	}

	fmt.Fprintln(w, simulateHeaderStyle.Render(fmt.Sprintf("%8s  %-22s  %7s  %-10s  %-5s  %-5s  %6s  %s",
		"scrollY", "parallax", "hero", "section", "nav", "top", "loader", "sampled")))

	for i, y := range opts.scroll {
		at := opts.start.Add(time.Duration(i) * opts.interval)
		transform := site.ParallaxLayers(y, []site.Layer{{Name: "hero", Speed: cfg.ParallaxSpeed}})[0]
		opacity := site.HeroOpacity(y, cfg.HeroHeight)
		active := site.ActiveSection(sections, y, cfg.NavOffset)
		scrolled := site.NavScrolled(y, cfg.NavScrollThreshold)
		backToTop := site.BackToTopVisible(y, cfg.BackToTopThreshold)
		sampled := Analytics.TrackScroll(at, y, opts.viewport, opts.document)

		Logger.Debug("Scroll", map[string]any{
			"scrollY":   y,
			"transform": transform.CSS(),
			"section":   active,
		})

		fmt.Fprintf(w, "%8.0f  %-22s  %7.2f  %-10s  %-5t  %-5t  %6.2f  %t\n",
			y, transform.CSS(), opacity, active, scrolled, backToTop, loader.Opacity(at), sampled)
	}

	if n := len(opts.scroll); n > 0 && site.BackToTopVisible(opts.scroll[n-1], cfg.BackToTopThreshold) {
		steps := site.ScrollToTopSteps(opts.scroll[n-1], 20)
		Analytics.TrackClick("back-to-top")
		fmt.Fprintf(w, "\nBack to top: %d frames from %.0fpx\n", len(steps), opts.scroll[n-1])
	}

	if opts.filter != "" {
		visibility := site.FilterGallery(demoGallery, opts.filter)
		Analytics.TrackClick("filter-" + strings.ToLower(opts.filter))
		var shown []string
		for _, v := range visibility {
			if v.Visible {
				shown = append(shown, v.ID)
			}
		}
		Logger.Info("Gallery filtered", map[string]any{"category": opts.filter, "visible": len(shown)})
		fmt.Fprintf(w, "\nGallery filter %q: %d of %d visible %v (categories: %s)\n",
			opts.filter, len(shown), len(demoGallery), shown, strings.Join(site.Categories(demoGallery), ", "))
	}

	elapsed, _ := Logger.EndPerformance("simulate")

	snap, err := Analytics.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSession %s: %d page view(s), %d scroll sample(s), max depth %.0f%%, %.2fms\n",
		snap.SessionID, snap.PageViews, snap.ScrollSamples, snap.MaxScrollDepth,
		float64(elapsed.Microseconds())/1000)
	return nil
}

func init() {
	simulateCmd.Flags().Float64SliceVar(&simulateScroll, "scroll", []float64{0, 120, 450, 900, 1600, 2400}, "Scroll positions to replay, in pixels")
	simulateCmd.Flags().Float64Var(&simulateViewport, "viewport", 800, "Viewport height in pixels")
	simulateCmd.Flags().Float64Var(&simulateDocument, "document", 3200, "Document height in pixels")
	simulateCmd.Flags().StringVar(&simulateFilter, "filter", "", "Gallery category to filter by")
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 50*time.Millisecond, "Time between scroll events")
	rootCmd.AddCommand(simulateCmd)
}
