package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"adbrush/internal/app"
	"adbrush/internal/domain"
	"adbrush/internal/infra/presets"
)

var (
	labelStyle   = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	rateStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	summaryBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// progressPrinter renders run callbacks. The reporter runs on its own
// goroutine, so writes are serialized.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) countdown(remaining time.Duration) {
	p.printf("%s %s\n", labelStyle.Render("starting in"), remaining.Round(time.Second))
}

func (p *progressPrinter) started(info app.RunInfo) {
	p.printf("%s %s on %s (%dx%d) at (%d, %d) with %d workers\n",
		headingStyle.Render("run"), info.RunID, info.Device.Serial,
		info.Screen.Width, info.Screen.Height,
		info.Target.X, info.Target.Y, info.Config.Threads,
	)
}

func (p *progressPrinter) progress(progress domain.Progress) {
	p.printf("%s\n", formatProgress(progress))
}

func (p *progressPrinter) finish() {
	p.printf("\n")
}

func (p *progressPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func formatProgress(progress domain.Progress) string {
	stats := progress.Stats
	parts := []string{
		labelStyle.Render(formatElapsed(progress.Elapsed)),
		fmt.Sprintf("%s %d", labelStyle.Render("taps"), stats.Attempts),
		okStyle.Render(fmt.Sprintf("ok %d", stats.Successes)),
		failStyle.Render(fmt.Sprintf("fail %d", stats.Failures)),
		rateStyle.Render(fmt.Sprintf("%.1f/s", progress.Rate)),
	}
	if stats.RefreshAttempts > 0 {
		parts = append(parts, fmt.Sprintf("%s %d/%d", labelStyle.Render("refresh"),
			stats.RefreshAttempts-stats.RefreshFailures, stats.RefreshAttempts))
	}
	return strings.Join(parts, "  ")
}

func formatElapsed(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	minutes := int(d / time.Minute)
	seconds := (d % time.Minute).Seconds()
	return fmt.Sprintf("%02d:%04.1f", minutes, seconds)
}

type summaryJSON struct {
	domain.RunSummary
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Error          string  `json:"error,omitempty"`
}

func printSummary(w io.Writer, summary domain.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		payload := summaryJSON{RunSummary: summary, ElapsedSeconds: summary.Elapsed.Seconds()}
		if summary.Err != nil {
			payload.Error = summary.Err.Error()
		}
		return writeJSON(w, payload)
	}
	_, err := fmt.Fprintln(w, renderSummary(summary))
	return err
}

func renderSummary(summary domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headingStyle.Render("run"), summary.RunID)
	fmt.Fprintf(&b, "%s (%d, %d)\n", labelStyle.Render("target  "), summary.Target.X, summary.Target.Y)
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("taps    "), summary.Attempts)
	fmt.Fprintf(&b, "%s %s / %s\n", labelStyle.Render("result  "),
		okStyle.Render(fmt.Sprintf("%d ok", summary.Successes)),
		failStyle.Render(fmt.Sprintf("%d failed", summary.Failures)))
	fmt.Fprintf(&b, "%s %s over %s\n", labelStyle.Render("rate    "),
		rateStyle.Render(fmt.Sprintf("%.1f/s", summary.Rate)), summary.Elapsed.Round(time.Millisecond))
	if summary.RefreshAttempts > 0 {
		fmt.Fprintf(&b, "%s %d (%d failed)\n", labelStyle.Render("refresh "), summary.RefreshAttempts, summary.RefreshFailures)
	}
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("stopped "), stopReasonText(summary.StoppedReason))
	return summaryBox.Render(b.String())
}

func stopReasonText(reason domain.StopReason) string {
	switch reason {
	case domain.StopReasonRequested:
		return "by request"
	case domain.StopReasonContextDone:
		return "context ended"
	case domain.StopReasonDeviceLost:
		return failStyle.Render("device lost")
	default:
		return string(reason)
	}
}

func printDevices(w io.Writer, devices []domain.Device, jsonOutput bool) error {
	if jsonOutput {
		if devices == nil {
			devices = []domain.Device{}
		}
		return writeJSON(w, devices)
	}
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "no devices attached")
		return err
	}
	for _, dev := range devices {
		state := okStyle.Render(dev.State)
		if !dev.Authorized() {
			state = failStyle.Render(dev.State)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", dev.Serial, state); err != nil {
			return err
		}
	}
	return nil
}

func printPresets(w io.Writer, list []presets.Preset, jsonOutput bool) error {
	if jsonOutput {
		if list == nil {
			list = []presets.Preset{}
		}
		return writeJSON(w, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no presets saved")
		return err
	}
	for _, p := range list {
		line := fmt.Sprintf("%s\t%s\t(%d, %d)", presets.ScreenKey(p.Screen), p.Name, p.X, p.Y)
		if p.Description != "" {
			line += "\t" + labelStyle.Render(p.Description)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
