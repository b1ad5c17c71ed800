package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a period-over-period change.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Trend is a rendered period-over-period comparison.
type Trend struct {
	DisplayValue string    `json:"display_value"`
	Direction    Direction `json:"direction"`
}

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
	neutral = Trend{DisplayValue: "0%", Direction: DirectionNeutral}
)

// ComputeTrend compares current against previous as a whole percentage.
//
//	(0, 0)     → "0%"    neutral
//	(5, 0)     → "+100%" up
//	(-5, 0)    → "-100%" down
//	(110, 100) → "+10%"  up
//	(90, 100)  → "-10%"  down
//
// The percentage is rounded half toward positive infinity, so 0.5 rounds to 1
// and -0.5 rounds to 0. Non-finite inputs are reported as neutral.
func ComputeTrend(current, previous float64) Trend {
	if !finite(current) || !finite(previous) {
		return neutral
	}

	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previous)

	if prev.IsZero() {
		switch {
		case cur.IsPositive():
			return Trend{DisplayValue: "+100%", Direction: DirectionUp}
		case cur.IsNegative():
			return Trend{DisplayValue: "-100%", Direction: DirectionDown}
		default:
			return neutral
		}
	}

	pct := cur.Sub(prev).Mul(hundred).Div(prev).Add(half).Floor()

	switch pct.Sign() {
	case 1:
		return Trend{DisplayValue: "+" + pct.String() + "%", Direction: DirectionUp}
	case -1:
		return Trend{DisplayValue: pct.String() + "%", Direction: DirectionDown}
	default:
		return neutral
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
