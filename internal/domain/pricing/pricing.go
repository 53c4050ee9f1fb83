package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
)

// ManualType enumerates the two ways an operator-entered discount can be
// expressed. Quick-percentage buttons and free-form input both set the same
// value; they are never additive.
type ManualType string

const (
	ManualPercentage ManualType = "percentage"
	ManualFixed      ManualType = "fixed"
)

var (
	// ErrInvalidPercentage is returned for a percentage outside [0,100].
	ErrInvalidPercentage = errors.New("percentage discount must be between 0 and 100")
	// ErrNegativeDiscount is returned for a negative fixed discount.
	ErrNegativeDiscount = errors.New("fixed discount must not be negative")
	// ErrNegativeGratuity is returned for a negative gratuity.
	ErrNegativeGratuity = errors.New("gratuity must not be negative")
)

var hundred = decimal.NewFromInt(100)

// ManualDiscount is the operator-entered discount: a percentage of the
// subtotal or a fixed amount, selected by Type. The zero value means no
// manual discount.
type ManualDiscount struct {
	Type  ManualType
	Value decimal.Decimal
}

// Validate enforces the bounds: percentage in [0,100], fixed >= 0.
func (m ManualDiscount) Validate() error {
	switch m.Type {
	case ManualPercentage:
		if m.Value.IsNegative() || m.Value.GreaterThan(hundred) {
			return ErrInvalidPercentage
		}
	case ManualFixed, "":
		if m.Value.IsNegative() {
			return ErrNegativeDiscount
		}
	default:
		return errors.Errorf("unsupported manual discount type: %q", m.Type)
	}
	return nil
}

// amount computes the manual discount amount against the given subtotal.
func (m ManualDiscount) amount(subtotal decimal.Decimal) decimal.Decimal {
	if m.Type == ManualPercentage {
		return subtotal.Mul(m.Value).Div(hundred)
	}
	return m.Value
}

// Totals is the computed price breakdown for a cart.
type Totals struct {
	Subtotal      decimal.Decimal
	ManualAmount  decimal.Decimal
	VoucherAmount decimal.Decimal
	Discount      decimal.Decimal
	Gratuity      decimal.Decimal
	Total         decimal.Decimal
}

// Quote computes the totals for the given lines and discount state. It is a
// pure function:
//
//	subtotal = sum(unitPrice * quantity)
//	discount = voucherAmount + manualAmount
//	total    = max(0, subtotal + gratuity - discount)
//
// The discount is computed independently of whether it exceeds the subtotal;
// an over-discounted cart legitimately totals zero.
func Quote(lines []cart.Line, voucherAmount decimal.Decimal, manual ManualDiscount, gratuity decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}

	manualAmount := manual.amount(subtotal)
	discount := voucherAmount.Add(manualAmount)

	total := subtotal.Add(gratuity).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:      subtotal,
		ManualAmount:  manualAmount,
		VoucherAmount: voucherAmount,
		Discount:      discount,
		Gratuity:      gratuity,
		Total:         total,
	}
}

// Change returns the signed difference paid - total. Positive is change owed
// to the customer, negative is an outstanding shortfall. One quantity, two
// presentations; never two independent fields.
func Change(paid, total decimal.Decimal) decimal.Decimal {
	return paid.Sub(total)
}
