// Package stats contains drill history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/tuimemo/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RunMetrics computes accuracy and correct repetitions per minute for a run.
func RunMetrics(matches, mistakes int, durationMs int64) (accuracy, perMinute float64) {
	den := float64(matches + mistakes)
	if den > 0 {
		accuracy = float64(matches) / den
	}
	if durationMs <= 0 {
		return accuracy, 0
	}
	minutes := float64(durationMs) / 60000.0
	return accuracy, float64(matches) / minutes
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals for the given runs.
func RenderSummary(w io.Writer, runs []model.RunStats) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No drills completed yet.")
		return err
	}
	var totalAcc float64
	var segments, matches int
	var duration int64
	for _, r := range runs {
		acc, _ := RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		totalAcc += acc
		segments += r.Segments
		matches += r.Matches
		duration += r.DurationMs
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Drills: %d", len(runs)),
		fmt.Sprintf("Segments memorized: %d", segments),
		fmt.Sprintf("Correct repetitions: %d", matches),
		fmt.Sprintf("Time practiced: %s", (time.Duration(duration) * time.Millisecond).Round(time.Second)),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/float64(len(runs))*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRunTable prints one row per run, most recent last.
func RenderRunTable(w io.Writer, runs []model.RunStats, now time.Time) error {
	if len(runs) == 0 {
		return nil
	}
	headers := []string{"Ended", "Mode", "Lang", "Segments", "Reps", "Accuracy", "Reps/min", "Duration"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		acc, perMin := RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		rows = append(rows, []string{
			humanize.RelTime(r.EndedAt, now, "ago", "from now"),
			r.Mode,
			r.Lang,
			fmt.Sprintf("%d", r.Segments),
			fmt.Sprintf("%d", r.Target),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%.1f", perMin),
			(time.Duration(r.DurationMs) * time.Millisecond).Round(time.Second).String(),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints a smoothed accuracy sparkline.
func RenderTrend(w io.Writer, runs []model.RunStats, window int) error {
	if len(runs) < 2 {
		return nil
	}
	accs := make([]float64, len(runs))
	for i, r := range runs {
		acc, _ := RunMetrics(r.Matches, r.Mistakes, r.DurationMs)
		accs[i] = acc * 100
	}
	smoothed := MovingAverage(accs, window)
	_, err := fmt.Fprintf(w, "Accuracy trend (window %d): [%s] %.1f%% -> %.1f%%\n",
		window, Sparkline(smoothed), smoothed[0], smoothed[len(smoothed)-1])
	return err
}
