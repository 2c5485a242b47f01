package diaglog

import (
	"io"
	"os"
	"time"

	"github.com/valter-silva-au/sitekit/internal/storage"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// Environment supplies the two context strings captured on every entry.
type Environment interface {
	UserAgent() string
	Location() string
}

// StaticEnvironment is an Environment with fixed values.
type StaticEnvironment struct {
	Agent string
	URL   string
}

func (e StaticEnvironment) UserAgent() string { return e.Agent }
func (e StaticEnvironment) Location() string  { return e.URL }

// Clock supplies wall-clock timestamps and monotonic readings. Readings from
// time.Now carry a monotonic component, so Sub between two of them is immune
// to wall-clock steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sink receives every recorded entry after it enters the buffer.
type Sink interface {
	Write(entry models.LogEntry) error
}

// Host groups the platform collaborators a Logger depends on. Nil fields are
// replaced by defaults in NewLogger: an in-memory store, os.Stderr, the system
// clock, an empty environment and a downloader that writes to the working
// directory.
type Host struct {
	Store      storage.KeyValueStore
	Console    io.Writer
	Env        Environment
	Clock      Clock
	Downloader storage.Downloader
	Sinks      []Sink
}

func (h Host) withDefaults() Host {
	if h.Store == nil {
		h.Store = storage.NewMemoryStore(0)
	}
	if h.Console == nil {
		h.Console = os.Stderr
	}
	if h.Env == nil {
		h.Env = StaticEnvironment{}
	}
	if h.Clock == nil {
		h.Clock = systemClock{}
	}
	if h.Downloader == nil {
		h.Downloader = storage.NewDirDownloader(".")
	}
	return h
}
