package gamemap

import (
	"errors"
	"testing"

	"github.com/gravitas-games/freepath/pkg/hex"
)

func TestIndexRoundTrip(t *testing.T) {
	gm, err := New(5, 4, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gm.Size() != 20 {
		t.Fatalf("expected 20 points, got %d", gm.Size())
	}
	for i := 0; i < gm.Size(); i++ {
		if got := gm.Index(gm.Point(i)); got != i {
			t.Errorf("index %d maps back to %d", i, got)
		}
	}
	if gm.Index(hex.Axial{Q: 5, R: 0}) != -1 || gm.Contains(hex.Axial{Q: -1, R: 2}) {
		t.Error("expected off-map points to be rejected")
	}
}

func TestWrappingNeighborsAndDistance(t *testing.T) {
	gm, _ := New(8, 8, true)
	origin := hex.Axial{}
	if got := gm.Neighbor(origin, hex.West); got != (hex.Axial{Q: 7, R: 0}) {
		t.Errorf("expected west of origin to wrap to (7,0), got %v", got)
	}
	if got := gm.Distance(origin, hex.Axial{Q: 7, R: 0}); got != 1 {
		t.Errorf("expected wrapped distance 1, got %d", got)
	}
	if got := gm.Distance(origin, hex.Axial{Q: 3, R: 0}); got != 3 {
		t.Errorf("expected distance 3, got %d", got)
	}
	for _, n := range gm.Neighbors(hex.Axial{Q: 7, R: 7}) {
		if gm.Distance(hex.Axial{Q: 7, R: 7}, n) != 1 {
			t.Errorf("neighbor %v not at distance 1", n)
		}
	}
}

func TestBoundedDistance(t *testing.T) {
	gm, _ := New(8, 8, false)
	if got := gm.Distance(hex.Axial{}, hex.Axial{Q: 7, R: 7}); got != 14 {
		t.Errorf("expected distance 14, got %d", got)
	}
}

func TestRoadsAreSharedBetweenEndpoints(t *testing.T) {
	gm, _ := New(4, 4, false)
	a := hex.Axial{Q: 1, R: 1}
	for _, d := range hex.Directions {
		if err := gm.SetRoad(a, d, NormalRoad); err != nil {
			t.Fatalf("set road %v: %v", d, err)
		}
		b := gm.Neighbor(a, d)
		if gm.Road(b, d.Opposite()) != NormalRoad {
			t.Errorf("road %v from %v not visible from %v", d, a, b)
		}
	}
	if !gm.HasRoadAt(hex.Axial{Q: 2, R: 1}) {
		t.Error("expected road at east neighbour")
	}
	if err := gm.SetRoad(hex.Axial{}, hex.West, NormalRoad); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected out of bounds error, got %v", err)
	}
	if !gm.Barrier(hex.Axial{}, hex.NorthWest) {
		t.Error("edges leaving the map must read as barriers")
	}
}

func TestResizeNotifiesListeners(t *testing.T) {
	gm, _ := New(2, 2, false)
	got := 0
	gm.OnResize(func(size int) { got = size })
	rev := gm.Revision()
	if err := gm.Resize(6, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 18 {
		t.Errorf("expected listener to see 18 points, got %d", got)
	}
	if gm.Revision() == rev {
		t.Error("expected revision bump on resize")
	}
	if err := gm.Resize(0, 3); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected invalid size, got %v", err)
	}
}

func TestParseLayout(t *testing.T) {
	rows := []string{
		". . ~ ~",
		" . T F .",
		"  ^ # . *",
	}
	gm, err := ParseLayout(rows, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gm.Width() != 4 || gm.Height() != 3 {
		t.Fatalf("unexpected size %dx%d", gm.Width(), gm.Height())
	}
	if gm.Terrain(hex.Axial{Q: 2, R: 0}) != Water {
		t.Error("expected water at (2,0)")
	}
	if gm.Object(hex.Axial{Q: 1, R: 1}) != Tree || gm.Object(hex.Axial{Q: 2, R: 1}) != Flag {
		t.Error("expected tree and flag on row 1")
	}
	want := []string{"..~~", ".TF.", "^#.*"}
	for i, row := range gm.Layout() {
		if row != want[i] {
			t.Errorf("row %d rendered as %q, want %q", i, row, want[i])
		}
	}
	if _, err := ParseLayout([]string{"..", "..."}, false); err == nil {
		t.Error("expected ragged layout to fail")
	}
	if _, err := ParseLayout([]string{".x"}, false); !errors.Is(err, ErrUnknownValue) {
		t.Errorf("expected unknown symbol error, got %v", err)
	}
}
