package animation

import "github.com/teslashibe/reachy-eyes/pkg/color"

// lerp performs linear interpolation between two values.
func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// clamp restricts a value to a range.
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// interpolateValue blends a toward b by t. Both must share a kind.
func interpolateValue(a, b Value, t float64) Value {
	switch a.Kind {
	case KindUnit:
		return Value{Kind: KindUnit, Scalar: clamp(lerp(a.Scalar, b.Scalar, t), 0, 1)}
	case KindColor:
		return Value{Kind: KindColor, Color: color.Lerp(a.Color, b.Color, t)}
	case KindVec2:
		return Value{Kind: KindVec2, Vec: [2]float64{lerp(a.Vec[0], b.Vec[0], t), lerp(a.Vec[1], b.Vec[1], t)}}
	default:
		return Value{Kind: KindScalar, Scalar: lerp(a.Scalar, b.Scalar, t)}
	}
}
