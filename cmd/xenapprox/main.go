// Package main is the entry point for the xenapprox CLI
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/james-see/xenapprox/pkg/config"
	"github.com/james-see/xenapprox/pkg/session"
	"github.com/james-see/xenapprox/pkg/tui"
	"github.com/james-see/xenapprox/pkg/tuning"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	debugLog   bool
	gridSize   string
	outputFile string
	title      string
	reportFmt  string
	midiSource string
	parallel   int
	outDir     string
)

var (
	cfg    = config.Default()
	logger = slog.Default()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xenapprox",
		Short: "Approximate Scala tunings on equal divisions of the octave",
		Long: `xenapprox imports a Scala (.scl) tuning, maps an n-TET grid onto it by
nearest pitch and exports the result as a new .scl file.

Examples:
  xenapprox approximate just.scl -n 12 -o just-12.scl
  xenapprox inspect just.scl -n 19
  xenapprox inspect just.scl -n 19 --format yaml
  xenapprox inspect just.scl -n 19 -o report.yaml
  xenapprox midi just.scl -n 12 --source approx
  xenapprox batch scales/*.scl -n 31 --out-dir out --parallel 4
  xenapprox tui just.scl`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/xenapprox/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newApproximateCmd(),
		newInspectCmd(),
		newMIDICmd(),
		newBatchCmd(),
		newTUICmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func addGridFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&gridSize, "notes", "n", "", "Number of equal divisions of the octave (default from config)")
}

func newApproximateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approximate <input.scl>",
		Short: "Export the n-TET approximation of a scale as .scl",
		Args:  cobra.ExactArgs(1),
		RunE:  runApproximate,
	}
	addGridFlag(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .scl file path")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Description line of the exported file")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <input.scl>",
		Short: "Print a scale and its n-TET approximation",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	addGridFlag(cmd)
	cmd.Flags().StringVarP(&reportFmt, "format", "f", "table", "Output format (table, yaml; default yaml for a .yaml output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	return cmd
}

func newMIDICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "midi <input.scl>",
		Short: "Render a scale or its approximation as a MIDI preview",
		Args:  cobra.ExactArgs(1),
		RunE:  runMIDI,
	}
	addGridFlag(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	cmd.Flags().StringVarP(&midiSource, "source", "s", "approx", "Pitches to render (original, approx)")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input.scl>...",
		Short: "Approximate many scales in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	addGridFlag(cmd)
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Number of files processed at once")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default config export_dir, else next to each input)")
	return cmd
}

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [input.scl]",
		Short: "Launch interactive terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	addGridFlag(cmd)
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write the current configuration to the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
}

func setup() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	level, _ := config.ParseLevel(cfg.LogLevel)
	if debugLog {
		level = slog.LevelDebug
	}
	initLogger(level)
	return nil
}

// initLogger installs a text handler on stderr as the default logger
func initLogger(level slog.Level) {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.Path()
}

// checkFormat rejects a path whose extension is not of format want
func checkFormat(path string, want tuning.Format) error {
	if got := tuning.DetectFormat(path); got != want {
		return &tuning.ValidationError{Field: "file", Value: path, Msg: fmt.Sprintf("expected %s file, got %s", want, got)}
	}
	return nil
}

// newSession loads input into a session sized by the -n flag or config
func newSession(input string) (*session.Session, error) {
	if err := checkFormat(input, tuning.FormatSCL); err != nil {
		return nil, err
	}

	s := session.New(session.WithGridSize(cfg.GridSize), session.WithLogger(logger))
	if gridSize != "" {
		if err := s.SetGridSize(gridSize); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if err := s.Import(string(data), filepath.Base(input)); err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return s, nil
}

func runApproximate(cmd *cobra.Command, args []string) error {
	input := args[0]
	s, err := newSession(input)
	if err != nil {
		return err
	}

	output := outputFile
	if output == "" {
		output = filepath.Join(exportDir(input), s.ExportName())
	} else if err := checkFormat(output, tuning.FormatSCL); err != nil {
		return err
	}

	if err := tuning.WriteFile(output, s.Export(title)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Approximated %s on %d-TET -> %s\n", input, s.GridSize(), output)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}

	format := reportFmt
	if outputFile != "" && !cmd.Flags().Changed("format") && tuning.DetectFormat(outputFile) == tuning.FormatYAML {
		format = "yaml"
	}

	var buf bytes.Buffer
	report := s.Report()
	switch format {
	case "table":
		if err := renderTable(&buf, report, s.Original()); err != nil {
			return err
		}
	case "yaml":
		data, err := report.YAML()
		if err != nil {
			return err
		}
		buf.Write(data)
	default:
		return fmt.Errorf("unknown format %q (want table or yaml)", format)
	}

	if outputFile == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s report of %s -> %s\n", format, args[0], outputFile)
	return nil
}

func runMIDI(cmd *cobra.Command, args []string) error {
	input := args[0]
	s, err := newSession(input)
	if err != nil {
		return err
	}

	var pitches []float64
	switch midiSource {
	case "approx", "approximation":
		pitches = s.Mapping().Pitches
	case "original":
		pitches = s.Editable()
	default:
		return fmt.Errorf("unknown source %q (want original or approx)", midiSource)
	}

	output := outputFile
	if output == "" {
		output = filepath.Join(exportDir(input), tuning.SwapExt(s.ExportName(), ".mid"))
	} else if err := checkFormat(output, tuning.FormatMIDI); err != nil {
		return err
	}

	r := cfg.MIDIRenderer()

	if err := r.WriteMIDIFile(pitches, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d notes of %s -> %s\n", len(pitches), input, output)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s := session.New(session.WithGridSize(cfg.GridSize), session.WithLogger(logger))
	if gridSize != "" {
		if err := s.SetGridSize(gridSize); err != nil {
			return err
		}
	}

	var input string
	if len(args) == 1 {
		input = args[0]
		if err := checkFormat(input, tuning.FormatSCL); err != nil {
			return err
		}
	}
	return tui.Run(s, input, cfg)
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// exportDir picks the directory for derived files of input
func exportDir(input string) string {
	if outDir != "" {
		return outDir
	}
	if cfg.ExportDir != "" {
		return cfg.ExportDir
	}
	return filepath.Dir(input)
}
