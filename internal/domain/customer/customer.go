package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a customer ID does not resolve to a registered
// customer.
var ErrNotFound = errors.New("customer not found")

// Customer is a registered customer. Walk-in sales carry no customer at all;
// an empty ID never reaches the directory.
type Customer struct {
	ID    string
	Name  string
	Phone string
}

// Directory resolves registered customers. The checkout flow uses it to gate
// treatment-package creation: packages are only opened for registered
// customers.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
}
