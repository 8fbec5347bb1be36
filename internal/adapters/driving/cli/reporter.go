package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
)

// Ensure reporter implements the interface.
var _ driving.BatchObserver = (*reporter)(nil)

// Colour palette.
var (
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourError   = lipgloss.Color("#F38BA8") // Red
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
)

const separator = "============================================================"

// reporter prints batch results to a writer. Colour is only used when the
// writer is a terminal.
type reporter struct {
	w io.Writer

	ok    lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
	title lipgloss.Style
}

func newReporter(w io.Writer) *reporter {
	r := lipgloss.NewRenderer(w)
	return &reporter{
		w:     w,
		ok:    r.NewStyle().Foreground(colourSuccess),
		fail:  r.NewStyle().Foreground(colourError),
		muted: r.NewStyle().Foreground(colourMuted),
		title: r.NewStyle().Foreground(colourPrimary).Bold(true),
	}
}

// UnitDone prints one result line.
func (r *reporter) UnitDone(out domain.JobOutcome, done, total int) {
	counter := fmt.Sprintf("[%4d/%d]", done, total)
	if out.Success {
		fmt.Fprintf(r.w, "%s %s %s %s\n", counter, r.ok.Render("✓"), out.Unit.Name(),
			r.muted.Render(fmt.Sprintf("(%s)", out.Elapsed.Round(time.Millisecond))))
		return
	}
	fmt.Fprintf(r.w, "%s %s %s: %s\n", counter, r.fail.Render("✗"), out.Unit.Name(), out.Message)
}

// Progress prints an aggregate progress line.
func (r *reporter) Progress(p domain.BatchProgress) {
	pct := 0.0
	if p.Total > 0 {
		pct = float64(p.Done) / float64(p.Total) * 100
	}
	line := fmt.Sprintf("Progress: %d/%d (%.1f%%) | Elapsed: %s | Rate: %.2f files/sec | ETA: %s",
		p.Done, p.Total, pct, p.Elapsed.Round(time.Second), p.Rate, p.ETA.Round(time.Second))
	fmt.Fprintln(r.w, r.muted.Render(line))
}

// Finished prints the batch summary.
func (r *reporter) Finished(s domain.BatchSummary) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", separator)
	fmt.Fprintln(&b, r.title.Render("BATCH PROCESSING COMPLETE"))
	fmt.Fprintf(&b, "%s\n", separator)
	fmt.Fprintf(&b, "Total files:  %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "Successful:   %s\n", r.ok.Render(humanize.Comma(int64(s.Successful))))
	if s.Failed > 0 {
		fmt.Fprintf(&b, "Failed:       %s\n", r.fail.Render(humanize.Comma(int64(s.Failed))))
	} else {
		fmt.Fprintf(&b, "Failed:       %d\n", s.Failed)
	}
	if s.Interrupted {
		fmt.Fprintf(&b, "Abandoned:    %d\n", s.Abandoned)
		fmt.Fprintf(&b, "Not started:  %d\n", s.NotStarted)
	}
	fmt.Fprintf(&b, "Elapsed:      %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Average rate: %.2f files/sec\n", s.Rate())
	fmt.Fprintf(&b, "Run ID:       %s\n", r.muted.Render(s.RunID))
	fmt.Fprint(r.w, b.String())
}
