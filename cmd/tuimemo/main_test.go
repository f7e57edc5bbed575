package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuimemo/internal/config"
	"github.com/verte-zerg/tuimemo/internal/segment"
)

func TestWritePreview(t *testing.T) {
	var buf bytes.Buffer
	text := "The $x$ value\nnext\n\n$$y$$"
	if err := writePreview(&buf, text, segment.ModeMulti, 40); err != nil {
		t.Fatalf("preview: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Segment 1/2 (lines 1-2)",
		`[literal "The "] [markup "x"] [literal " value"]`,
		"Segment 2/2 (lines 4-4)",
		`[block markup "y"]`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in preview:\n%s", want, out)
		}
	}
}

func TestWritePreviewEmptyText(t *testing.T) {
	var buf bytes.Buffer
	if err := writePreview(&buf, "\n  \n", segment.ModeSingle, 40); err == nil {
		t.Fatalf("expected error for blank text")
	}
}

func TestWriteLangs(t *testing.T) {
	var buf bytes.Buffer
	if err := writeLangs(&buf); err != nil {
		t.Fatalf("langs: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "en-US  English (US)\n") {
		t.Fatalf("unexpected langs output: %q", buf.String())
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if cfg.Drill.Mode != nil {
		t.Fatalf("expected commented template to leave values unset")
	}
	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "\n# ", "\n")
	uncommented = strings.Replace(uncommented, "\nUncomment a value to enable it. CLI flags override config values.", "", 1)
	if _, err := toml.Decode(uncommented, &cfg); err != nil {
		t.Fatalf("uncommented template does not decode: %v\n%s", err, uncommented)
	}
	if cfg.Drill.Repetitions == nil || *cfg.Drill.Repetitions != 10 {
		t.Fatalf("unexpected reps: %v", cfg.Drill.Repetitions)
	}
	if cfg.Drill.AdvanceDelay == nil || cfg.Drill.AdvanceDelay.Duration != 2*time.Second {
		t.Fatalf("unexpected advance delay: %v", cfg.Drill.AdvanceDelay)
	}
}

func TestReadTextFromFileAndPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.txt")
	if err := os.WriteFile(path, []byte("alpha\r\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd := &cobra.Command{}
	text, piped, err := readText(cmd, []string{path})
	if err != nil || piped || text != "alpha\nbeta" {
		t.Fatalf("unexpected file read: %q %v %v", text, piped, err)
	}

	cmd.SetIn(strings.NewReader("gamma\n"))
	text, piped, err = readText(cmd, nil)
	if err != nil || !piped || text != "gamma" {
		t.Fatalf("unexpected pipe read: %q %v %v", text, piped, err)
	}

	if _, _, err := readText(cmd, []string{filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{}
	var reps int
	cmd.Flags().IntVar(&reps, "reps", 10, "")
	fromFile := 4
	applyIntConfig(cmd, "reps", &reps, &fromFile)
	if reps != 4 {
		t.Fatalf("expected config value, got %d", reps)
	}
	if err := cmd.Flags().Set("reps", "7"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	applyIntConfig(cmd, "reps", &reps, &fromFile)
	if reps != 7 {
		t.Fatalf("expected flag to win, got %d", reps)
	}

	var delay time.Duration
	cmd.Flags().DurationVar(&delay, "clear-delay", time.Second, "")
	applyDurationConfig(cmd, "clear-delay", &delay, &config.Duration{Duration: 250 * time.Millisecond})
	if delay != 250*time.Millisecond {
		t.Fatalf("expected config delay, got %v", delay)
	}
}
