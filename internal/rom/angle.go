// Package rom computes clinical range-of-motion metrics from hand and body
// pose landmarks: finger joint angles, Kapandji thumb-opposition scores and
// elbow-referenced wrist angles. All calculators are pure functions of their
// inputs; noisy or missing landmarks degrade to neutral defaults instead of
// returning errors.
package rom

import (
	"math"

	"github.com/ayusman/hasta/internal/landmark"
)

// AngleBetween returns the angle in degrees at vertex formed by the vectors
// vertex->p1 and vertex->p3, in [0,180]. Zero-length vectors degrade to 0.
func AngleBetween(p1, vertex, p3 landmark.Point3D) float64 {
	v1x, v1y, v1z := p1.X-vertex.X, p1.Y-vertex.Y, p1.Z-vertex.Z
	v2x, v2y, v2z := p3.X-vertex.X, p3.Y-vertex.Y, p3.Z-vertex.Z

	mag1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	mag2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)
	if mag1 < 1e-10 || mag2 < 1e-10 {
		return 0
	}

	cos := (v1x*v2x + v1y*v2y + v1z*v2z) / (mag1 * mag2)
	// Clamp for floating point drift before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi
}

// FlexionAngle returns the flexion reading at vertex: the deviation from a
// straight 180-degree joint, clamped at 0. A fully extended joint reads 0, a
// joint bent to a right angle reads 90. Zero-length vectors mean the joint is
// not tracked and degrade to 0, not to a fully-bent reading.
func FlexionAngle(p1, vertex, p3 landmark.Point3D) float64 {
	if zeroVector(p1, vertex) || zeroVector(p3, vertex) {
		return 0
	}
	flexion := 180 - AngleBetween(p1, vertex, p3)
	if flexion < 0 {
		return 0
	}
	return flexion
}

// zeroVector reports whether p and vertex coincide within tolerance.
func zeroVector(p, vertex landmark.Point3D) bool {
	dx, dy, dz := p.X-vertex.X, p.Y-vertex.Y, p.Z-vertex.Z
	return math.Sqrt(dx*dx+dy*dy+dz*dz) < 1e-10
}

// SignedAngle2D returns the signed angle in degrees from vector (ax,ay) to
// vector (bx,by) in the image plane, in (-180,180]. Positive angles are
// counter-clockwise in image coordinates (x right, y down). Degenerate
// vectors degrade to 0.
func SignedAngle2D(ax, ay, bx, by float64) float64 {
	if (ax == 0 && ay == 0) || (bx == 0 && by == 0) {
		return 0
	}
	cross := ax*by - ay*bx
	dot := ax*bx + ay*by
	return math.Atan2(cross, dot) * 180 / math.Pi
}
