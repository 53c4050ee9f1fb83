package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/voucher"
)

const (
	getVoucherByCodeSQL = `SELECT code, type, value, cap, description, valid_from, valid_until
		FROM vouchers WHERE code = UPPER($1)`

	upsertVoucherSQL = `INSERT INTO vouchers (code, type, value, cap, description, valid_from, valid_until)
		VALUES (UPPER($1), $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			cap = EXCLUDED.cap,
			description = EXCLUDED.description,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until`
)

var _ voucher.Repository = (*VoucherRepository)(nil)

// VoucherRepository implements voucher.Repository backed by PostgreSQL.
type VoucherRepository struct {
	pool *pgxpool.Pool
}

// NewVoucherRepository returns a VoucherRepository that uses the given pool.
func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

// FindByCode looks up a voucher rule by its code. Codes are stored uppercase;
// the query uppercases the parameter so lookup is case-insensitive.
// Returns voucher.ErrInvalidVoucher when no matching voucher exists.
func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*voucher.Rule, error) {
	rows, err := r.pool.Query(ctx, getVoucherByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding voucher %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanVoucherRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, voucher.ErrInvalidVoucher
		}
		return nil, fmt.Errorf("finding voucher %q: %w", code, err)
	}
	return &rule, nil
}

// Upsert inserts or replaces a voucher rule. Used by the ingest tool.
func (r *VoucherRepository) Upsert(ctx context.Context, rule voucher.Rule) error {
	_, err := r.pool.Exec(ctx, upsertVoucherSQL,
		rule.Code, string(rule.Type), rule.Value, rule.Cap,
		rule.Description, rule.ValidFrom, rule.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("upserting voucher %q: %w", rule.Code, err)
	}
	return nil
}

func scanVoucherRule(row pgx.CollectableRow) (voucher.Rule, error) {
	var (
		rule  voucher.Rule
		vtype string
	)
	err := row.Scan(
		&rule.Code, &vtype, &rule.Value, &rule.Cap,
		&rule.Description, &rule.ValidFrom, &rule.ValidUntil,
	)
	rule.Type = voucher.Type(vtype)
	return rule, err
}
