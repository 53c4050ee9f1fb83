package treatment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested package does not exist.
var ErrNotFound = errors.New("treatment package not found")

// Package is a recurring-service package opened when a registered customer
// buys a service product sold as N sessions.
type Package struct {
	ID            string
	CustomerID    string
	ProductID     string
	ProductName   string
	OrderID       string
	TotalSessions int
	UsedSessions  int
	CreatedAt     time.Time
}

// Repository defines persistence operations for treatment packages.
type Repository interface {
	Create(ctx context.Context, p *Package) error
	ListByCustomer(ctx context.Context, customerID string) ([]Package, error)
}
