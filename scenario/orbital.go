package scenario

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Node places one transmitter (or the shared receiver) for the geometric
// gain builder. Exactly one location source must be set: a static ECEF
// position in kilometres, or a two-line element set propagated to the
// scenario epoch with SGP4.
type Node struct {
	ID       string    `json:"id" yaml:"id"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	TLE1     string    `json:"tle1,omitempty" yaml:"tle1,omitempty"`
	TLE2     string    `json:"tle2,omitempty" yaml:"tle2,omitempty"`
}

// Position is a static ECEF coordinate in kilometres.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// locate resolves the node to an ECEF point at the given epoch. Static
// positions ignore the epoch; TLE nodes require a non-zero one.
func (n *Node) locate(epoch time.Time) (Vec3, error) {
	if n.Position != nil {
		return Vec3{X: n.Position.X, Y: n.Position.Y, Z: n.Position.Z}, nil
	}
	if n.TLE1 != "" && n.TLE2 != "" {
		if epoch.IsZero() {
			return Vec3{}, fmt.Errorf("%w: node %q uses a TLE but the gain spec has no epoch", ErrInvalidScenario, n.ID)
		}
		return propagateTLE(n.TLE1, n.TLE2, epoch), nil
	}
	return Vec3{}, fmt.Errorf("%w: node %q needs either a position or both TLE lines", ErrInvalidScenario, n.ID)
}

// propagateTLE runs SGP4 for the epoch and rotates the ECI result into ECEF.
// go-satellite works in kilometres throughout.
func propagateTLE(line1, line2 string, epoch time.Time) Vec3 {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	year, month, day := epoch.Date()
	hour, min, sec := epoch.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}
