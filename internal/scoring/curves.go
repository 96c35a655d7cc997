package scoring

import "math"

// Clamp bounds a score to [0,100]. NaN collapses to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Lerp linearly maps x from [x0,x1] onto [y0,y1].
func Lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y1
	}
	return y0 + (x-x0)/(x1-x0)*(y1-y0)
}

// Point is a breakpoint of a piecewise-linear curve.
type Point struct {
	X, Y float64
}

// Piecewise interpolates linearly between breakpoints sorted by X. Values
// outside the range hold the end values.
func Piecewise(x float64, points ...Point) float64 {
	if len(points) == 0 {
		return 0
	}
	if x <= points[0].X {
		return points[0].Y
	}
	for i := 1; i < len(points); i++ {
		if x <= points[i].X {
			a, b := points[i-1], points[i]
			return Lerp(x, a.X, b.X, a.Y, b.Y)
		}
	}
	return points[len(points)-1].Y
}

// LogGrowth is 100·log(x/base)/log(scale): 0 at base, 100 at base·scale.
func LogGrowth(x, base, scale float64) float64 {
	if x <= base || base <= 0 || scale <= 1 {
		return 0
	}
	return 100 * math.Log(x/base) / math.Log(scale)
}

// Asymptotic approaches 100 from 0 as x rises above floor, with rate k.
func Asymptotic(x, floor, k float64) float64 {
	if x <= floor || k <= 0 {
		return 0
	}
	return 100 * (1 - math.Exp(-(x-floor)/k))
}
