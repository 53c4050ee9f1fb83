package voucher

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported voucher discount strategies.
type Type string

const (
	// TypePercentage applies a percentage-based discount to the subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
)

var (
	// ErrInvalidVoucher is returned when a voucher code is not found.
	ErrInvalidVoucher = errors.New("invalid voucher code")
	// ErrVoucherExpired is returned when a voucher is outside its valid
	// time window.
	ErrVoucherExpired = errors.New("voucher expired")
)

// Rule defines a voucher's discount behaviour. Cap, when positive, bounds the
// amount a percentage voucher can take off.
type Rule struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	Cap         decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// Discount holds the computed discount amount and a human-readable
// description for the receipt.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup of voucher rules by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}
