// Package pricing computes the final price components written onto each
// allocated ticket: source price from the category, VAT from the event's
// rate, and any applied discount.
package pricing

import (
	"ticket-reservation/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceContainer holds the inputs of a single ticket price calculation.
type PriceContainer struct {
	SrcPrice   decimal.Decimal
	VatPercent decimal.Decimal
	Discount   decimal.Decimal
}

// ForTicket builds a price container from the category's source price and
// the event's VAT rate. An invalid stored VAT percent is treated as zero.
func ForTicket(category *model.TicketCategory, event *model.Event, discount decimal.Decimal) PriceContainer {
	vatPercent, err := decimal.NewFromString(event.VatPercent)
	if err != nil {
		vatPercent = decimal.Zero
	}
	return PriceContainer{
		SrcPrice:   category.Price,
		VatPercent: vatPercent,
		Discount:   discount,
	}
}

// VAT is the tax portion, rounded to two decimal places.
func (p PriceContainer) VAT() decimal.Decimal {
	return p.SrcPrice.Mul(p.VatPercent).Div(hundred).Round(2)
}

// FinalPrice is what the customer is charged for the ticket.
func (p PriceContainer) FinalPrice() decimal.Decimal {
	final := p.SrcPrice.Add(p.VAT()).Sub(p.Discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final.Round(2)
}
