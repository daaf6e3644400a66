// Package pricing computes the price breakdown of a trek booking.
package pricing

import "github.com/shopspring/decimal"

// TaxRate is the flat tax applied to the subtotal.
var TaxRate = decimal.RequireFromString("0.05")

// AddOn is a catalog add-on as offered on the booking form. Price is per
// participant.
type AddOn struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Selected bool            `json:"selected"`
}

type Breakdown struct {
	BasePrice   decimal.Decimal `json:"base_price"`
	AddOnsTotal decimal.Decimal `json:"addons_total"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Calculate prices n participants at unitPrice plus every selected add-on
// charged once per participant. Values are left unrounded; call Rounded
// before persisting.
func Calculate(unitPrice decimal.Decimal, n int, addOns []AddOn) Breakdown {
	count := decimal.NewFromInt(int64(n))

	base := unitPrice.Mul(count)
	addOnsTotal := decimal.Zero
	for _, a := range addOns {
		if !a.Selected {
			continue
		}
		addOnsTotal = addOnsTotal.Add(LineTotal(a.Price, n))
	}

	subtotal := base.Add(addOnsTotal)
	tax := subtotal.Mul(TaxRate)

	return Breakdown{
		BasePrice:   base,
		AddOnsTotal: addOnsTotal,
		Subtotal:    subtotal,
		TaxAmount:   tax,
		TotalAmount: subtotal.Add(tax),
	}
}

// LineTotal is the charge for one add-on across all participants.
func LineTotal(price decimal.Decimal, n int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(n)))
}

// Rounded returns the breakdown with every amount rounded to two places.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		BasePrice:   b.BasePrice.Round(2),
		AddOnsTotal: b.AddOnsTotal.Round(2),
		Subtotal:    b.Subtotal.Round(2),
		TaxAmount:   b.TaxAmount.Round(2),
		TotalAmount: b.TotalAmount.Round(2),
	}
}

// Selected filters addOns down to the ones the customer ticked.
func Selected(addOns []AddOn) []AddOn {
	out := make([]AddOn, 0, len(addOns))
	for _, a := range addOns {
		if a.Selected {
			out = append(out, a)
		}
	}
	return out
}
