package scenario

import "math"

// earthRadiusKm is the mean Earth radius used for the line-of-sight test
// (kilometres).
const earthRadiusKm = 6371.0

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// lineOfSight checks whether the straight segment between p1 and p2 clears
// the Earth sphere. A blocked path contributes zero gain to the geometric
// builder instead of a path-loss figure.
//
// All positions are ECEF in kilometres.
func lineOfSight(p1, p2 Vec3) bool {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		// Degenerate case: same point. Outside Earth counts as clear.
		return p1.Dot(p1) > earthRadiusKm*earthRadiusKm
	}

	// Closest point on the segment to the Earth's centre (origin);
	// t* minimises |p1 + t v|^2 over t ∈ [0,1].
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Vec3{
		X: p1.X + v.X*t,
		Y: p1.Y + v.Y*t,
		Z: p1.Z + v.Z*t,
	}
	return closest.Dot(closest) > earthRadiusKm*earthRadiusKm
}

// fsplDB is the free-space path loss in dB for a distance in kilometres and
// a carrier frequency in GHz: 92.45 + 20 log10(d_km) + 20 log10(f_GHz).
// Distances under a kilometre clamp to one; non-positive frequencies fall
// back to a generic Ku/Ka-like 10 GHz.
func fsplDB(distanceKm, fGHz float64) float64 {
	if distanceKm < 1 {
		distanceKm = 1
	}
	if fGHz <= 0 {
		fGHz = 10
	}
	return 92.45 + 20*math.Log10(distanceKm) + 20*math.Log10(fGHz)
}
