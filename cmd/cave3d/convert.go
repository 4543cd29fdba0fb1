package main

import (
	"fmt"
	"os"

	"github.com/dyuri/cave3d/internal/export"
	"github.com/dyuri/cave3d/internal/text"
	"github.com/dyuri/cave3d/pkg/cave3d"
	"github.com/spf13/cobra"
)

// dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <input.3d>",
	Short: "Convert a .3d file to a text listing",
	Long: `Convert a binary .3d file to the plain-text listing format.

The listing can be edited and converted back to binary with txt2bin.
Decode diagnostics are appended as comments.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	dumpCmd.Flags().String("format", "text", "Output format: text, json")
	dumpCmd.Flags().Bool("no-diagnostics", false, "Omit diagnostic comments from text output")
}

func runDump(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	noDiag, _ := cmd.Flags().GetBool("no-diagnostics")

	s, err := loadSurvey(inputPath)
	if err != nil {
		return err
	}

	out, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format {
	case "text":
		w := text.NewWriter(out)
		w.SetDiagnostics(!noDiag)
		return w.Write(s)
	case "json":
		b, err := buildBundle(s)
		if err != nil {
			return err
		}
		return export.WriteJSON(out, b, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// txt2bin command
var txt2binCmd = &cobra.Command{
	Use:   "txt2bin <input.txt>",
	Short: "Convert a text listing to .3d format",
	Long: `Convert the plain-text listing format to a binary .3d file.

Legs are written as move and line records, stations as label records
and tubes as cross-section records.`,
	Args: cobra.ExactArgs(1),
	RunE: runTxt2Bin,
}

func init() {
	txt2binCmd.Flags().StringP("output", "o", "", "Output file (required)")
	txt2binCmd.MarkFlagRequired("output")
	txt2binCmd.Flags().String("title", "", "Override survey title")
}

func runTxt2Bin(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	title, _ := cmd.Flags().GetString("title")

	// Open input file
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	// Parse listing
	s, err := cave3d.ParseText(f)
	if err != nil {
		return fmt.Errorf("parse listing: %w", err)
	}

	if title != "" {
		s.Header.Title = title
	}

	// Create output file
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	// Write binary .3d
	if err := cave3d.WriteBinary(out, s); err != nil {
		return fmt.Errorf("write .3d: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Successfully converted %s to %s\n", inputPath, outputPath)
	fmt.Fprintf(os.Stderr, "  Title: %s, Style: %s\n", s.Header.Title, s.Style)
	fmt.Fprintf(os.Stderr, "  Stations: %d, Legs: %d, Tubes: %d\n",
		s.Stations.Len(), s.LegCount(), len(s.Tubes))

	return nil
}
