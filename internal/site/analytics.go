package site

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"golang.org/x/time/rate"
)

const (
	metricPageViews   = "sitekit_page_views_total"
	metricClicks      = "sitekit_clicks_total"
	metricScrollDepth = "sitekit_scroll_depth_max_percent"
	metricScrollHits  = "sitekit_scroll_samples_total"
)

// scrollMilestones are the depth percentages reported once per session.
var scrollMilestones = []float64{25, 50, 75, 100}

// AnalyticsSnapshot is the current value of every analytics counter.
type AnalyticsSnapshot struct {
	SessionID      string         `json:"session_id"`
	PageViews      int            `json:"page_views"`
	Clicks         map[string]int `json:"clicks"`
	MaxScrollDepth float64        `json:"max_scroll_depth"`
	ScrollSamples  int            `json:"scroll_samples"`
}

// Analytics counts page views, clicks and scroll depth for one visit. The
// counters live on a private prometheus registry and never leave the process.
type Analytics struct {
	logger    diaglog.Logger
	sessionID string
	limiter   *rate.Limiter

	registry     *prometheus.Registry
	pageViews    prometheus.Counter
	clicks       *prometheus.CounterVec
	scrollDepth  prometheus.Gauge
	scrollEvents prometheus.Counter

	mu         sync.Mutex
	maxDepth   float64
	milestones int
}

// NewAnalytics creates an Analytics reporting tracked events to logger.
// Scroll events are sampled at most sampleHz times per second; a
// non-positive rate samples every event.
func NewAnalytics(logger diaglog.Logger, sampleHz float64) *Analytics {
	limit := rate.Inf
	if sampleHz > 0 {
		limit = rate.Limit(sampleHz)
	}

	a := &Analytics{
		logger:    logger,
		sessionID: uuid.NewString(),
		limiter:   rate.NewLimiter(limit, 1),
		registry:  prometheus.NewRegistry(),
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPageViews,
			Help: "Page views recorded in this session.",
		}),
		clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricClicks,
			Help: "Clicks recorded per tracked element.",
		}, []string{"element"}),
		scrollDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricScrollDepth,
			Help: "Deepest scroll position reached, as a percentage of the page.",
		}),
		scrollEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricScrollHits,
			Help: "Scroll events that passed the sampling limiter.",
		}),
	}
	a.registry.MustRegister(a.pageViews, a.clicks, a.scrollDepth, a.scrollEvents)
	return a
}

// SessionID identifies this visit.
func (a *Analytics) SessionID() string {
	return a.sessionID
}

// TrackPageView counts a view of path.
func (a *Analytics) TrackPageView(path string) {
	a.pageViews.Inc()
	a.logger.Debug("Page view", map[string]any{"path": path, "session": a.sessionID})
}

// TrackClick counts a click on the named element.
func (a *Analytics) TrackClick(element string) {
	a.clicks.WithLabelValues(element).Inc()
	a.logger.Debug("Click", map[string]any{"element": element})
}

// TrackScroll samples a scroll event at time at. It returns false when the
// event was dropped by the sampling limiter. Each depth milestone is logged
// the first time it is reached.
func (a *Analytics) TrackScroll(at time.Time, scrollY, viewportHeight, documentHeight float64) bool {
	if !a.limiter.AllowN(at, 1) {
		return false
	}
	a.scrollEvents.Inc()

	depth := ScrollDepth(scrollY, viewportHeight, documentHeight)

	a.mu.Lock()
	defer a.mu.Unlock()
	if depth > a.maxDepth {
		a.maxDepth = depth
		a.scrollDepth.Set(depth)
	}
	for a.milestones < len(scrollMilestones) && a.maxDepth >= scrollMilestones[a.milestones] {
		a.logger.Info(fmt.Sprintf("Scroll depth reached %.0f%%", scrollMilestones[a.milestones]),
			map[string]any{"percent": scrollMilestones[a.milestones]})
		a.milestones++
	}
	return true
}

// ScrollDepth is the bottom of the viewport as a percentage of the document.
func ScrollDepth(scrollY, viewportHeight, documentHeight float64) float64 {
	if documentHeight <= 0 {
		return 100
	}
	return clamp((scrollY+viewportHeight)/documentHeight*100, 0, 100)
}

// Snapshot gathers the current counter values.
func (a *Analytics) Snapshot() (AnalyticsSnapshot, error) {
	families, err := a.registry.Gather()
	if err != nil {
		return AnalyticsSnapshot{}, fmt.Errorf("gathering analytics: %w", err)
	}

	snap := AnalyticsSnapshot{SessionID: a.sessionID, Clicks: make(map[string]int)}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch f.GetName() {
			case metricPageViews:
				snap.PageViews = int(m.GetCounter().GetValue())
			case metricClicks:
				snap.Clicks[labelValue(m, "element")] = int(m.GetCounter().GetValue())
			case metricScrollDepth:
				snap.MaxScrollDepth = m.GetGauge().GetValue()
			case metricScrollHits:
				snap.ScrollSamples = int(m.GetCounter().GetValue())
			}
		}
	}
	return snap, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
