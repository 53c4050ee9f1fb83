package voucher

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVoucherRepo struct {
	rule *Rule
	err  error
}

func (m *mockVoucherRepo) FindByCode(_ context.Context, _ string) (*Rule, error) {
	return m.rule, m.err
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name       string
		repo       *mockVoucherRepo
		code       string
		subtotal   decimal.Decimal
		wantAmount decimal.Decimal
		wantErr    error
	}{
		{
			name: "percentage voucher",
			repo: &mockVoucherRepo{
				rule: &Rule{Code: "SAVE10", Type: TypePercentage, Value: decimal.NewFromInt(10)},
			},
			code:       "SAVE10",
			subtotal:   decimal.NewFromInt(100),
			wantAmount: decimal.NewFromInt(10),
		},
		{
			name: "fixed voucher",
			repo: &mockVoucherRepo{
				rule: &Rule{Code: "GIAM50K", Type: TypeFixed, Value: decimal.NewFromInt(50000)},
			},
			code:       "GIAM50K",
			subtotal:   decimal.NewFromInt(200000),
			wantAmount: decimal.NewFromInt(50000),
		},
		{
			name: "percentage voucher respects cap",
			repo: &mockVoucherRepo{
				rule: &Rule{
					Code:  "HALF",
					Type:  TypePercentage,
					Value: decimal.NewFromInt(50),
					Cap:   decimal.NewFromInt(30000),
				},
			},
			code:       "HALF",
			subtotal:   decimal.NewFromInt(200000),
			wantAmount: decimal.NewFromInt(30000),
		},
		{
			name: "fixed voucher larger than subtotal is not clamped here",
			repo: &mockVoucherRepo{
				rule: &Rule{Code: "BIG", Type: TypeFixed, Value: decimal.NewFromInt(500)},
			},
			code:       "BIG",
			subtotal:   decimal.NewFromInt(100),
			wantAmount: decimal.NewFromInt(500),
		},
		{
			name:    "unknown code",
			repo:    &mockVoucherRepo{err: ErrInvalidVoucher},
			code:    "BOGUS",
			wantErr: ErrInvalidVoucher,
		},
		{
			name: "expired voucher",
			repo: &mockVoucherRepo{
				rule: &Rule{Code: "OLD", Type: TypePercentage, Value: decimal.NewFromInt(10), ValidUntil: &pastTime},
			},
			code:    "OLD",
			wantErr: ErrVoucherExpired,
		},
		{
			name: "not yet valid voucher",
			repo: &mockVoucherRepo{
				rule: &Rule{Code: "SOON", Type: TypeFixed, Value: decimal.NewFromInt(5), ValidFrom: &futureTime},
			},
			code:    "SOON",
			wantErr: ErrVoucherExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			d, err := v.Validate(context.Background(), tt.code, tt.subtotal)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d.Amount.Equal(tt.wantAmount),
				"amount = %s, want %s", d.Amount, tt.wantAmount)
		})
	}
}

func TestRepoValidator_WrapsRepoErrors(t *testing.T) {
	repoErr := errors.New("connection refused")
	v := NewRepoValidator(&mockVoucherRepo{err: repoErr})

	_, err := v.Validate(context.Background(), "ANY", decimal.NewFromInt(10))
	require.ErrorIs(t, err, repoErr)
}

func TestApply_UnsupportedType(t *testing.T) {
	_, err := Apply(&Rule{Code: "X", Type: "bogus"}, decimal.NewFromInt(10))
	require.Error(t, err)
}
