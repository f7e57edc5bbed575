// Package stats contains drill history calculations and reporting.
package stats

import (
	"context"
	"io"
	"time"

	"github.com/verte-zerg/tuimemo/internal/model"
)

// RunLister loads completed drills.
type RunLister interface {
	ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunStats, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Runs        []model.RunStats
	TrendWindow int
}

// BuildReport loads runs matching cfg.
func BuildReport(ctx context.Context, st RunLister, cfg model.HistoryConfig, window int) (Report, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Runs: runs, TrendWindow: window}, nil
}

// Render writes the summary, the run table and the accuracy trend.
func (r Report) Render(w io.Writer, now time.Time) error {
	if err := RenderSummary(w, r.Runs); err != nil {
		return err
	}
	if err := RenderRunTable(w, r.Runs, now); err != nil {
		return err
	}
	return RenderTrend(w, r.Runs, r.TrendWindow)
}
