package binary

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleSurvey() *model.Survey {
	s := model.NewSurvey()
	s.Header = model.Header{Title: "Gouffre", Version: "Survex 3D Image File", Metadata: "@", Timestamp: "@1700000000"}
	s.Style = model.StyleNormal

	under := model.LegKey{Underground: true}
	splay := model.LegKey{Underground: true, Splay: true}
	s.Legs[under] = model.Leg{
		{{X: 0, Y: 0, Z: 0}, {X: 100, Y: 0, Z: -50}, {X: 200, Y: 50, Z: -120}},
		{{X: -10, Y: -10, Z: 5}, {X: -20, Y: -40, Z: 0}},
	}
	s.Legs[splay] = model.Leg{{{X: 100, Y: 0, Z: -50}, {X: 100, Y: 80, Z: -50}}}
	s.LegOrder = []model.LegKey{under, splay}

	s.Stations.Set(model.Station{Label: "gouffre.entrance", Pos: model.Point3{}, Flags: model.StationEntrance | model.StationSurface})
	s.Stations.Set(model.Station{Label: "gouffre.1", Pos: model.Point3{X: 100, Z: -50}, Flags: model.StationUnderground})
	s.Stations.Set(model.Station{Label: "gouffre.2", Pos: model.Point3{X: 200, Y: 50, Z: -120}, Flags: model.StationUnderground})
	s.Stations.Set(model.Station{Label: "annexe." + strings.Repeat("x", 40), Pos: model.Point3{X: -20, Y: -40}})

	s.Tubes = []model.Tube{
		{
			{Label: "gouffre.entrance", Left: 100, Right: 120, Up: 200, Down: 30},
			{Label: "gouffre.1", Left: 80, Right: 80, Up: 150, Down: 70000},
			{Label: "gouffre.2", Left: 50, Right: 60, Up: 90, Down: 40},
		},
	}
	return s
}

func TestWriteRoundTrip(t *testing.T) {
	want := sampleSurvey()

	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := NewReader(buf.Bytes()).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got.Header != want.Header {
		t.Errorf("Header = %+v, want %+v", got.Header, want.Header)
	}
	if got.Style != want.Style {
		t.Errorf("Style = %s, want %s", got.Style, want.Style)
	}
	if diff := cmp.Diff(want.Legs, got.Legs); diff != "" {
		t.Errorf("Legs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.LegOrder, got.LegOrder); diff != "" {
		t.Errorf("LegOrder mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Stations.All(), got.Stations.All()); diff != "" {
		t.Errorf("Stations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Tubes, got.Tubes); diff != "" {
		t.Errorf("Tubes mismatch (-want +got):\n%s", diff)
	}
	if len(got.Diagnostics) != 0 {
		t.Errorf("Got %d diagnostics, want 0", len(got.Diagnostics))
	}
}

func TestWriteLabelEdits(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})

	if err := w.writeLabelEdit("cave.12"); err != nil {
		t.Fatal(err)
	}
	if err := w.writeLabelEdit("cave.13"); err != nil {
		t.Fatal(err)
	}
	if err := w.writeLabelEdit("cave.13"); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x07, 'c', 'a', 'v', 'e', '.', '1', '2', 0x11, '3', 0x00, 0x00, 0x00}
	if diff := cmp.Diff(want, w.buf.Bytes(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("edit bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRejectsShortRun(t *testing.T) {
	s := model.NewSurvey()
	s.Legs[model.LegKey{}] = model.Leg{{{X: 1, Y: 2, Z: 3}}}

	if err := NewWriter(&bytes.Buffer{}).Write(s); err == nil {
		t.Error("Write succeeded for a single-point run")
	}
}
