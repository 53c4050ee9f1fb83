package voucher

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount for the given rule and subtotal. The result
// is never negative; a percentage voucher is additionally bounded by the
// rule's Cap when one is set. The amount is NOT clamped to the subtotal here:
// the final total is floored at zero at the combination step instead.
func Apply(rule *Rule, subtotal decimal.Decimal) (Discount, error) {
	var amount decimal.Decimal

	switch rule.Type {
	case TypePercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
		if rule.Cap.IsPositive() && amount.GreaterThan(rule.Cap) {
			amount = rule.Cap
		}
	case TypeFixed:
		amount = rule.Value
	default:
		return Discount{}, errors.Errorf("unsupported voucher type: %q", rule.Type)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{
		Code:        rule.Code,
		Amount:      amount,
		Description: rule.Description,
	}, nil
}
