package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dyuri/cave3d/internal/config"
	"github.com/dyuri/cave3d/internal/input"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/dyuri/cave3d/pkg/cave3d"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Set by the root command before any subcommand runs
var (
	cfg *config.Config
	log = logrus.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cave3d",
	Short: "Decode Survex .3d cave survey files",
	Long: `cave3d is a tool for working with Survex .3d cave survey files.

It can dump surveys as an editable text listing and encode them back,
inspect file metadata, validate structure, export renderable geometry
as JSON, CBOR or SQLite, draw plan views, and serve decoding over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(txt2binCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config and configures the logger
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if level != "" {
		c.Log.Level = level
	}

	l, err := c.Logger(os.Stderr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	cfg, log = c, l
	return nil
}

// loadSurvey reads, inflates and decodes a .3d file
func loadSurvey(path string) (*model.Survey, error) {
	data, err := input.ReadFile(path, log)
	if err != nil {
		return nil, err
	}

	enc, err := cfg.Charset()
	if err != nil {
		return nil, err
	}

	s, err := cave3d.ParseBytes(data, cave3d.WithCharset(enc), cave3d.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// buildBundle builds geometry using the configured options
func buildBundle(s *model.Survey) (*model.GeometryBundle, error) {
	opts, err := cfg.GeometryOptions()
	if err != nil {
		return nil, err
	}
	b, err := cave3d.BuildGeometry(s, opts)
	if err != nil {
		return nil, fmt.Errorf("build geometry: %w", err)
	}
	for _, d := range b.Diagnostics {
		log.WithField("kind", d.Kind.String()).Warn(d.Message)
	}
	return b, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens path for writing, or stdout when path is empty
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cave3d version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
