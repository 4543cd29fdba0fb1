package legs

import (
	"testing"

	"github.com/dyuri/cave3d/internal/model"
	"github.com/google/go-cmp/cmp"
)

func pt(x, y, z int32) model.Point3 {
	return model.Point3{X: x, Y: y, Z: z}
}

func TestChainedSegments(t *testing.T) {
	acc := New()
	key := model.LegKey{Underground: true}

	acc.Add(key, pt(0, 0, 0), pt(1, 0, 0))
	acc.Add(key, pt(1, 0, 0), pt(2, 0, 0))
	acc.Add(key, pt(2, 0, 0), pt(2, 1, 0))

	want := model.Leg{{pt(0, 0, 0), pt(1, 0, 0), pt(2, 0, 0), pt(2, 1, 0)}}
	if diff := cmp.Diff(want, acc.Legs()[key]); diff != "" {
		t.Errorf("Leg mismatch (-want +got):\n%s", diff)
	}
	if acc.Segments() != 3 {
		t.Errorf("Segments() = %d, want 3", acc.Segments())
	}
}

func TestDiscontinuityStartsNewRun(t *testing.T) {
	acc := New()
	key := model.LegKey{}

	acc.Add(key, pt(0, 0, 0), pt(1, 0, 0))
	acc.Add(key, pt(5, 5, 5), pt(6, 5, 5))
	acc.Add(key, pt(6, 5, 5), pt(7, 5, 5))

	leg := acc.Legs()[key]
	if len(leg) != 2 {
		t.Fatalf("Got %d runs, want 2", len(leg))
	}
	if len(leg[0]) != 2 || len(leg[1]) != 3 {
		t.Errorf("Run lengths = %d,%d, want 2,3", len(leg[0]), len(leg[1]))
	}
}

func TestInterleavedKeys(t *testing.T) {
	acc := New()
	cave := model.LegKey{Underground: true}
	splay := model.LegKey{Underground: true, Splay: true}

	acc.Add(cave, pt(0, 0, 0), pt(10, 0, 0))
	acc.Add(splay, pt(10, 0, 0), pt(10, 3, 0))
	acc.Add(cave, pt(10, 0, 0), pt(20, 0, 0))

	if diff := cmp.Diff([]model.LegKey{cave, splay}, acc.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
	if got := len(acc.Legs()[cave]); got != 1 {
		t.Errorf("Got %d cave runs, want 1", got)
	}
	if got := len(acc.Legs()[splay]); got != 1 {
		t.Errorf("Got %d splay runs, want 1", got)
	}
}

func TestEmpty(t *testing.T) {
	acc := New()
	if len(acc.Legs()) != 0 || len(acc.Keys()) != 0 || acc.Segments() != 0 {
		t.Error("New accumulator is not empty")
	}
}
