package text

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyuri/cave3d/internal/model"
)

// Writer handles writing surveys in the plain-text listing format
type Writer struct {
	w           io.Writer
	diagnostics bool
}

// NewWriter creates a new listing writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, diagnostics: true}
}

// SetDiagnostics controls whether decode diagnostics are written as
// comments at the end of the listing
func (w *Writer) SetDiagnostics(on bool) {
	w.diagnostics = on
}

// Write outputs the survey as a listing
func (w *Writer) Write(s *model.Survey) error {
	// Write header section
	if err := w.writeHeader(s.Header, s.Style); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Write stations
	for _, st := range s.Stations.All() {
		if err := w.writeStation(st); err != nil {
			return fmt.Errorf("write station %q: %w", st.Label, err)
		}
	}

	// Write legs, one section per key
	for _, key := range s.LegOrder {
		if err := w.writeLeg(key, s.Legs[key]); err != nil {
			return fmt.Errorf("write leg %s: %w", key, err)
		}
	}

	// Write cross-section tubes
	for i, tube := range s.Tubes {
		if err := w.writeTube(tube); err != nil {
			return fmt.Errorf("write tube %d: %w", i, err)
		}
	}

	if w.diagnostics && len(s.Diagnostics) > 0 {
		if _, err := fmt.Fprintf(w.w, "; %d diagnostic(s)\n", len(s.Diagnostics)); err != nil {
			return err
		}
		for _, d := range s.Diagnostics {
			if _, err := fmt.Fprintf(w.w, "; %s\n", d); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeHeader writes the [_header] section
func (w *Writer) writeHeader(h model.Header, style model.Style) error {
	// Format:
	// [_header]
	// Title=Cave
	// Version=1
	// Metadata=
	// Timestamp=2024
	// Style=NORMAL
	// [end]

	_, err := fmt.Fprintf(w.w, "[_header]\n")
	if err != nil {
		return err
	}

	fmt.Fprintf(w.w, "Title=%s\n", h.Title)
	fmt.Fprintf(w.w, "Version=%s\n", h.Version)
	fmt.Fprintf(w.w, "Metadata=%s\n", h.Metadata)
	fmt.Fprintf(w.w, "Timestamp=%s\n", h.Timestamp)

	if style != model.StyleUnset {
		fmt.Fprintf(w.w, "Style=%s\n", style)
	}

	_, err = fmt.Fprintf(w.w, "[end]\n\n")
	return err
}

// writeStation writes a [_station] section
func (w *Writer) writeStation(st model.Station) error {
	_, err := fmt.Fprintf(w.w, "[_station]\nLabel=%s\nPos=%s\n", st.Label, formatPoint(st.Pos))
	if err != nil {
		return err
	}

	if names := st.Flags.Names(); len(names) > 0 {
		fmt.Fprintf(w.w, "Flags=%s\n", strings.Join(names, ","))
	}

	_, err = fmt.Fprintf(w.w, "[end]\n\n")
	return err
}

// writeLeg writes a [_leg] section with one Run line per polyline
func (w *Writer) writeLeg(key model.LegKey, leg model.Leg) error {
	_, err := fmt.Fprintf(w.w, "[_leg]\nKey=%s\n", key)
	if err != nil {
		return err
	}

	for _, run := range leg {
		pts := make([]string, len(run))
		for i, p := range run {
			pts[i] = formatPoint(p)
		}
		fmt.Fprintf(w.w, "Run=%s\n", strings.Join(pts, " "))
	}

	_, err = fmt.Fprintf(w.w, "[end]\n\n")
	return err
}

// writeTube writes a [_tube] section. The label goes last since it may
// contain commas.
func (w *Writer) writeTube(tube model.Tube) error {
	_, err := fmt.Fprintf(w.w, "[_tube]\n")
	if err != nil {
		return err
	}

	for _, r := range tube {
		fmt.Fprintf(w.w, "Ring=%d,%d,%d,%d,%s\n", r.Left, r.Right, r.Up, r.Down, r.Label)
	}

	_, err = fmt.Fprintf(w.w, "[end]\n\n")
	return err
}

func formatPoint(p model.Point3) string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}
