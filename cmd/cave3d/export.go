package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyuri/cave3d/internal/render"
	"github.com/dyuri/cave3d/internal/store"
	"github.com/dyuri/cave3d/pkg/cave3d"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

// export command
var exportCmd = &cobra.Command{
	Use:   "export <input.3d>",
	Short: "Export renderable geometry",
	Long: `Build normalized, coloured geometry from a .3d file and export it.

Formats are json and cbor, written to a file or stdout, and sqlite,
which appends the survey to the database given with -o.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout, required for sqlite)")
	exportCmd.Flags().String("format", "json", "Output format: json, cbor, sqlite")
	exportCmd.Flags().Float64("extent", 0, "Target extent of the largest axis (overrides config)")
	exportCmd.Flags().Bool("no-xsect", false, "Skip passage meshes")
}

func runExport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	extent, _ := cmd.Flags().GetFloat64("extent")
	noXSect, _ := cmd.Flags().GetBool("no-xsect")

	if extent > 0 {
		cfg.Geometry.TargetExtent = extent
	}
	if noXSect {
		off := false
		cfg.Geometry.CrossSections = &off
	}

	s, err := loadSurvey(inputPath)
	if err != nil {
		return err
	}
	b, err := buildBundle(s)
	if err != nil {
		return err
	}

	if format == "sqlite" {
		if outputPath == "" {
			return fmt.Errorf("sqlite export needs --output")
		}
		db, err := store.Open(outputPath)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.SaveBundle(context.Background(), b)
		if err != nil {
			return fmt.Errorf("save bundle: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Stored %s in %s as survey %s\n", filepath.Base(inputPath), outputPath, id)
		return nil
	}

	out, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return cave3d.Export(out, b, format)
}

// plan command
var planCmd = &cobra.Command{
	Use:   "plan <input.3d>",
	Short: "Draw a plan view",
	Long: `Draw the legs of a .3d file seen from above, coloured by height.

The image format follows the output extension (png, svg, pdf, ...).`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringP("output", "o", "", "Output file (required)")
	planCmd.MarkFlagRequired("output")
	planCmd.Flags().Float64("width", 6, "Image width in inches")
	planCmd.Flags().Float64("height", 6, "Image height in inches")
	planCmd.Flags().Bool("splays", false, "Draw splay legs")
	planCmd.Flags().Bool("surface", false, "Draw surface legs")
	planCmd.Flags().Bool("stations", false, "Mark stations")
}

func runPlan(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	width, _ := cmd.Flags().GetFloat64("width")
	height, _ := cmd.Flags().GetFloat64("height")

	opts := render.DefaultPlanOptions()
	opts.Width = vg.Length(width) * vg.Inch
	opts.Height = vg.Length(height) * vg.Inch
	opts.Splays, _ = cmd.Flags().GetBool("splays")
	opts.Surface, _ = cmd.Flags().GetBool("surface")
	opts.Stations, _ = cmd.Flags().GetBool("stations")
	if ext := strings.TrimPrefix(filepath.Ext(outputPath), "."); ext != "" {
		opts.Format = strings.ToLower(ext)
	}

	s, err := loadSurvey(inputPath)
	if err != nil {
		return err
	}
	b, err := buildBundle(s)
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	return render.WritePlan(out, b, opts)
}
