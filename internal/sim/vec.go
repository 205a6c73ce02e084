package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalizeDeg wraps an angle into (-180, 180].
func NormalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// Forward returns the unit ground-plane heading for a yaw in degrees.
// Yaw 0 faces -z.
func Forward(yaw float64) mgl64.Vec3 {
	rad := mgl64.DegToRad(yaw)
	return mgl64.Vec3{-math.Sin(rad), 0, -math.Cos(rad)}
}

// YawOf returns the yaw that faces along the x/z components of dir.
// ok is false when the horizontal magnitude is below minLen, in which case
// no meaningful heading exists.
func YawOf(dir mgl64.Vec3, minLen float64) (yaw float64, ok bool) {
	if math.Hypot(dir.X(), dir.Z()) < minLen {
		return 0, false
	}
	return NormalizeDeg(mgl64.RadToDeg(math.Atan2(-dir.X(), -dir.Z()))), true
}

func horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// minDirection is the shortest vector treated as a usable direction.
const minDirection = 1e-9
