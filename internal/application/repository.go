// internal/application/repository.go
package application

import "context"

// Repository owns the stored applications. Expired applications are removed
// rather than flagged, so FindByName never returns them after a sweep.
type Repository interface {
	Save(ctx context.Context, app Application) error
	// FindByName returns every stored application of name in insertion order.
	FindByName(ctx context.Context, name string) ([]Application, error)
	// FindOpen returns every stored application in insertion order.
	FindOpen(ctx context.Context) ([]Application, error)
	// Remove deletes every stored entry carrying app's id.
	Remove(ctx context.Context, app Application) error
}

// NotificationClient sends a message to a named recipient. There is no
// read-back on the production contract.
type NotificationClient interface {
	NotifyUser(ctx context.Context, name, message string) error
}

// CustomerRepository records that an applicant is a known customer.
type CustomerRepository interface {
	RegisterCustomer(ctx context.Context, name string) error
}
