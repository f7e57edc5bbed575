// Package main provides the CLI entrypoint for tuimemo.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuimemo/internal/config"
	"github.com/verte-zerg/tuimemo/internal/drill"
	"github.com/verte-zerg/tuimemo/internal/markup"
	"github.com/verte-zerg/tuimemo/internal/model"
	"github.com/verte-zerg/tuimemo/internal/segment"
	"github.com/verte-zerg/tuimemo/internal/source"
	"github.com/verte-zerg/tuimemo/internal/speech"
	"github.com/verte-zerg/tuimemo/internal/stats"
	"github.com/verte-zerg/tuimemo/internal/statsui"
	"github.com/verte-zerg/tuimemo/internal/store"
	"github.com/verte-zerg/tuimemo/internal/tui"
)

const defaultTrendWindow = 5

var (
	drillMode        string
	drillReps        int
	drillLang        string
	drillSpeak       bool
	drillPlaceholder string
	drillAdvance     time.Duration
	drillClear       time.Duration

	previewMode string

	historyMode   string
	historyLang   string
	historySince  string
	historyLast   int
	historyWindow int
	historyPlain  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuimemo [file]",
		Short:         "TUI text memorization trainer",
		Long:          "Memorize text by typing it back segment by segment. Text comes from a file, stdin, or the setup screen.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDrillCmd,
	}

	rootCmd.Flags().StringVar(&drillMode, "mode", string(segment.ModeSingle), "segmentation mode: single or multi")
	rootCmd.Flags().IntVar(&drillReps, "reps", drill.DefaultTarget, "correct repetitions required per segment")
	rootCmd.Flags().StringVar(&drillLang, "lang", drill.DefaultLang, "speech language code (see: tuimemo langs)")
	rootCmd.Flags().BoolVar(&drillSpeak, "speak", false, "read each segment aloud automatically")
	rootCmd.Flags().StringVar(&drillPlaceholder, "placeholder", markup.DefaultPlaceholder, "word spoken in place of markup")
	rootCmd.Flags().DurationVar(&drillAdvance, "advance-delay", drill.DefaultAdvanceDelay, "pause before moving to the next segment")
	rootCmd.Flags().DurationVar(&drillClear, "clear-delay", drill.DefaultClearDelay, "pause before clearing a correct answer")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runDrillCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadDrillConfig(cmd)
	if err != nil {
		return err
	}

	text, piped, err := readText(cmd, args)
	if err != nil {
		return err
	}

	machine, err := drill.New(drill.Options{
		Mode:         segment.Mode(cfg.Mode),
		Target:       cfg.Repetitions,
		Lang:         cfg.Lang,
		AutoSpeak:    cfg.AutoSpeak,
		Placeholder:  cfg.Placeholder,
		AdvanceDelay: cfg.AdvanceDelay,
		ClearDelay:   cfg.ClearDelay,
	})
	if err != nil {
		return err
	}
	if err := machine.SetText(text); err != nil {
		return err
	}

	var history tui.History
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open history db, drills will not be saved: %v\n", err)
	} else {
		history = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	var speaker tui.Speaker
	sp := speech.New(func(err error) {
		logErrf("speech failed: %v\n", err)
	})
	if sp.Available() {
		speaker = sp
	} else if cfg.AutoSpeak {
		logErrln("no speech command found (install espeak-ng); continuing without voice")
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if piped {
		opts = append(opts, tea.WithInputTTY())
	}
	m := tui.NewModel(machine, history, speaker, strings.TrimSpace(text) != "")
	program := tea.NewProgram(m, opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadDrillConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	d := fileCfg.Drill
	applyStringConfig(cmd, "mode", &drillMode, d.Mode)
	applyIntConfig(cmd, "reps", &drillReps, d.Repetitions)
	applyStringConfig(cmd, "lang", &drillLang, d.Lang)
	applyBoolConfig(cmd, "speak", &drillSpeak, d.AutoSpeak)
	applyStringConfig(cmd, "placeholder", &drillPlaceholder, d.Placeholder)
	applyDurationConfig(cmd, "advance-delay", &drillAdvance, d.AdvanceDelay)
	applyDurationConfig(cmd, "clear-delay", &drillClear, d.ClearDelay)

	cfg := model.Config{
		Mode:         strings.ToLower(strings.TrimSpace(drillMode)),
		Repetitions:  drillReps,
		Lang:         strings.TrimSpace(drillLang),
		AutoSpeak:    drillSpeak,
		Placeholder:  drillPlaceholder,
		AdvanceDelay: drillAdvance,
		ClearDelay:   drillClear,
	}
	if lang, ok := speech.Lookup(cfg.Lang); ok {
		cfg.Lang = lang.Code
	}
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// readText returns the drill text from the file argument or piped stdin.
// piped reports whether stdin was consumed.
func readText(cmd *cobra.Command, args []string) (text string, piped bool, err error) {
	if len(args) == 1 && args[0] != "-" {
		text, err = source.LoadFile(args[0])
		if err != nil {
			return "", false, fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return text, false, nil
	}
	stdin := cmd.InOrStdin()
	f, ok := stdin.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) && len(args) == 0 {
		return "", false, nil
	}
	text, err = source.Read(stdin)
	if err != nil {
		return "", true, fmt.Errorf("failed to read stdin: %w", err)
	}
	return text, true, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List speech languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	return writeLangs(cmd.OutOrStdout())
}

func writeLangs(w io.Writer) error {
	for _, lang := range speech.Languages {
		if _, err := fmt.Fprintf(w, "%-6s %s\n", lang.Code, lang.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Print how a text splits into segments and markup",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPreviewCmd,
	}
	cmd.Flags().StringVar(&previewMode, "mode", string(segment.ModeSingle), "segmentation mode: single or multi")
	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	mode, err := segment.ParseMode(previewMode)
	if err != nil {
		return fmt.Errorf("--mode: %w", err)
	}
	text, _, err := readText(cmd, args)
	if err != nil {
		return err
	}
	width := 80
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return writePreview(cmd.OutOrStdout(), text, mode, width)
}

func writePreview(w io.Writer, text string, mode segment.Mode, width int) error {
	segs, err := segment.Split(text, mode)
	if err != nil {
		return err
	}
	rule := strings.Repeat("-", max(10, min(width, 60)))
	for i, seg := range segs {
		if _, err := fmt.Fprintf(w, "Segment %d/%d (lines %d-%d)\n%s\n", i+1, len(segs), seg.Start+1, seg.End, rule); err != nil {
			return err
		}
		for _, line := range seg.Lines {
			if _, err := fmt.Fprintln(w, describeLine(line)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func describeLine(line string) string {
	runs := markup.Tokenize(line)
	if len(runs) == 0 {
		return "  (empty)"
	}
	parts := make([]string, 0, len(runs))
	for _, run := range runs {
		label := run.Kind.String()
		if run.Block {
			label = "block " + label
		}
		parts = append(parts, fmt.Sprintf("[%s %q]", label, run.Content))
	}
	return "  " + strings.Join(parts, " ")
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed drills",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyMode, "mode", "", "mode filter (single or multi)")
	cmd.Flags().StringVar(&historyLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N drills")
	cmd.Flags().IntVar(&historyWindow, "window", defaultTrendWindow, "moving average window for the accuracy trend")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain report instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	cfg := model.HistoryConfig{
		Mode:  strings.ToLower(strings.TrimSpace(historyMode)),
		Lang:  strings.TrimSpace(historyLang),
		Since: sinceTime,
		Last:  historyLast,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	f, isFile := out.(*os.File)
	if historyPlain || !isFile || !term.IsTerminal(int(f.Fd())) {
		report, err := stats.BuildReport(cmd.Context(), st, cfg, historyWindow)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return report.Render(out, time.Now())
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg, historyWindow), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuimemo configuration
# Uncomment a value to enable it. CLI flags override config values.

[drill]
# mode = %q          # Segmentation mode: single or multi
# reps = %d               # Correct repetitions required per segment
# lang = %q          # Speech language code (see: tuimemo langs)
# speak = false           # Read each segment aloud automatically
# placeholder = %q  # Word spoken in place of markup
# advance-delay = %q     # Pause before moving to the next segment
# clear-delay = %q     # Pause before clearing a correct answer
`,
		segment.ModeSingle,
		drill.DefaultTarget,
		drill.DefaultLang,
		markup.DefaultPlaceholder,
		drill.DefaultAdvanceDelay.String(),
		drill.DefaultClearDelay.String(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
