package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/dyuri/cave3d/pkg/cave3d"
	"github.com/spf13/cobra"
)

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input.3d>",
	Short: "Validate .3d file structure",
	Long: `Validate .3d file structure and contents.

Reports reserved opcodes, cross sections referencing unknown stations,
tubes too short to build, and degenerate extents.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	s, err := loadSurvey(inputPath)
	if err != nil {
		return err
	}

	// Always build cross sections, whatever the config says
	opts, err := cfg.GeometryOptions()
	if err != nil {
		return err
	}
	opts.SkipCrossSections = false
	b, err := cave3d.BuildGeometry(s, opts)
	if err != nil {
		return fmt.Errorf("build geometry: %w", err)
	}

	// Validate the survey
	v := newValidator(strict)
	v.validate(s, b, inputPath)

	// Print results
	v.printResults(os.Stdout)

	// Return error if validation failed
	if v.hasErrors() || (strict && v.hasWarnings()) {
		return fmt.Errorf("validation failed")
	}

	return nil
}

// validator holds validation state
type validator struct {
	strict   bool
	errors   []string
	warnings []string

	file     string
	title    string
	stations int
	legs     int
	tubes    int
}

func newValidator(strict bool) *validator {
	return &validator{
		strict:   strict,
		errors:   make([]string, 0),
		warnings: make([]string, 0),
	}
}

func (v *validator) error(msg string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(msg, args...))
}

func (v *validator) warning(msg string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(msg, args...))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) validate(s *model.Survey, b *model.GeometryBundle, file string) {
	v.file = file
	v.title = s.Header.Title
	v.stations, v.legs, v.tubes = s.Stations.Len(), s.LegCount(), len(s.Tubes)

	// Validate header
	v.validateHeader(&s.Header)

	// Library checks: diagnostics, short tubes, unresolved stations
	for _, is := range cave3d.Validate(s, b) {
		if is.Level == "error" {
			v.error("%s: %s", is.Field, is.Message)
		} else {
			v.warning("%s: %s", is.Field, is.Message)
		}
	}

	// Validate legs
	v.validateLegs(s)
}

func (v *validator) validateHeader(h *model.Header) {
	if h.Title == "" {
		v.warning("Empty survey title")
	}
	for _, field := range []struct{ name, value string }{
		{"title", h.Title},
		{"version", h.Version},
		{"metadata", h.Metadata},
		{"timestamp", h.Timestamp},
	} {
		if strings.ContainsRune(field.value, utf8.RuneError) {
			v.warning("Header %s contains invalid characters", field.name)
		}
	}
}

func (v *validator) validateLegs(s *model.Survey) {
	if s.LegCount() == 0 {
		return
	}

	// Legs whose ends match no station usually mean labels were dropped
	known := make(map[model.Point3]bool, s.Stations.Len())
	for _, st := range s.Stations.All() {
		known[st.Pos] = true
	}
	if len(known) == 0 {
		v.warning("Survey has legs but no labelled stations")
		return
	}

	for _, key := range s.LegOrder {
		if key.Splay {
			continue
		}
		loose := 0
		for _, run := range s.Legs[key] {
			for _, p := range []model.Point3{run[0], run[len(run)-1]} {
				if !known[p] {
					loose++
				}
			}
		}
		if loose > 0 {
			v.warning("%s legs: %d run end(s) not at a labelled station", key, loose)
		}
	}
}

// printResults writes a summary line for the survey, one line per issue
// and a verdict
func (v *validator) printResults(w io.Writer) {
	fmt.Fprintf(w, "%s: %q, %d stations, %d legs, %d tubes\n",
		v.file, v.title, v.stations, v.legs, v.tubes)

	for _, msg := range v.errors {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
	for _, msg := range v.warnings {
		fmt.Fprintf(w, "  warn:  %s\n", msg)
	}

	switch {
	case v.hasErrors():
		fmt.Fprintf(w, "FAIL: %s, %s\n", plural(len(v.errors), "error"), plural(len(v.warnings), "warning"))
	case v.hasWarnings() && v.strict:
		fmt.Fprintf(w, "FAIL: %s (strict)\n", plural(len(v.warnings), "warning"))
	case v.hasWarnings():
		fmt.Fprintf(w, "OK: %s\n", plural(len(v.warnings), "warning"))
	default:
		fmt.Fprintln(w, "OK")
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
