package scenario

import (
	"errors"
	"testing"
	"time"
)

// The classic SGP4 verification element set (ISS, September 2008).
const (
	issTLE1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issTLE2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func TestLocateStaticPosition(t *testing.T) {
	n := Node{ID: "gs-1", Position: &Position{X: 6371, Y: 10, Z: -4}}

	got, err := n.locate(time.Time{})
	if err != nil {
		t.Fatalf("locate static: %v", err)
	}
	if got != (Vec3{X: 6371, Y: 10, Z: -4}) {
		t.Fatalf("locate static = %+v", got)
	}
}

func TestLocateTLEAtEpoch(t *testing.T) {
	n := Node{ID: "iss", TLE1: issTLE1, TLE2: issTLE2}
	epoch := time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC)

	pos, err := n.locate(epoch)
	if err != nil {
		t.Fatalf("locate TLE: %v", err)
	}

	// Near its element-set epoch the ISS sits roughly 350-420 km up.
	r := pos.Norm()
	if r < earthRadiusKm+200 || r > earthRadiusKm+600 {
		t.Fatalf("propagated radius = %v km, want low Earth orbit", r)
	}
}

func TestLocateTLENeedsEpoch(t *testing.T) {
	n := Node{ID: "iss", TLE1: issTLE1, TLE2: issTLE2}

	if _, err := n.locate(time.Time{}); !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("locate TLE without epoch err = %v, want ErrInvalidScenario", err)
	}
}

func TestLocateNeedsSomeSource(t *testing.T) {
	n := Node{ID: "ghost"}

	if _, err := n.locate(time.Now()); !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("locate bare node err = %v, want ErrInvalidScenario", err)
	}
}
