// Package pricing holds the money arithmetic of carts and orders.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	Price    float64
	Quantity int
}

// Total sums price*quantity over lines.
func Total(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}

// ApplyPercent returns total reduced by percent, rounded to cents.
func ApplyPercent(total, percent float64) float64 {
	t := decimal.NewFromFloat(total)
	off := t.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	return t.Sub(off).Round(2).InexactFloat64()
}

// OrderTotal is the amount charged for an order.
func OrderTotal(cartPrice, tax, shipping float64) float64 {
	return decimal.NewFromFloat(cartPrice).
		Add(decimal.NewFromFloat(tax)).
		Add(decimal.NewFromFloat(shipping)).
		Round(2).InexactFloat64()
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(units int64) float64 {
	return decimal.NewFromInt(units).Div(hundred).Round(2).InexactFloat64()
}

// RoundRating rounds an average rating to one decimal.
func RoundRating(avg float64) float64 {
	return decimal.NewFromFloat(avg).Round(1).InexactFloat64()
}
