package diaglog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// consoleWriter renders entries as styled single lines. The renderer is bound
// to the destination writer, so writers that are not terminals get plain text.
type consoleWriter struct {
	w      io.Writer
	prefix string
	styles map[models.Level]lipgloss.Style
}

func newConsoleWriter(w io.Writer, prefix string) *consoleWriter {
	r := lipgloss.NewRenderer(w)
	return &consoleWriter{
		w:      w,
		prefix: prefix,
		styles: map[models.Level]lipgloss.Style{
			models.LevelDebug:   r.NewStyle().Foreground(lipgloss.Color("245")),
			models.LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("69")),
			models.LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
			models.LevelWarn:    r.NewStyle().Foreground(lipgloss.Color("226")),
			models.LevelError:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

// FormatLine renders the tag, message and payload of e without styling.
func FormatLine(prefix string, e models.LogEntry) string {
	return tag(prefix, e.Level) + " " + body(e)
}

func tag(prefix string, level models.Level) string {
	t := "[" + strings.ToUpper(string(level)) + "]"
	if prefix == "" {
		return t
	}
	return prefix + " " + t
}

func body(e models.LogEntry) string {
	if e.Data == nil {
		return e.Message
	}
	return e.Message + " " + formatPayload(e.Data)
}

func formatPayload(data any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

func (c *consoleWriter) write(e models.LogEntry) {
	style, ok := c.styles[e.Level]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintln(c.w, style.Render(tag(c.prefix, e.Level))+" "+body(e))
}

// warn writes a warning line that is not recorded as an entry.
func (c *consoleWriter) warn(msg string, err error) {
	fmt.Fprintln(c.w, c.styles[models.LevelWarn].Render(tag(c.prefix, models.LevelWarn))+" "+msg+": "+err.Error())
}
