package fakes

import (
	"context"
	"sync"
)

// CustomerRepository records registered names in a set.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]int

	RegisterErr error
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[string]int)}
}

func (r *CustomerRepository) RegisterCustomer(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RegisterErr != nil {
		return r.RegisterErr
	}
	r.customers[name]++
	return nil
}

func (r *CustomerRepository) Exists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.customers[name]
	return ok, nil
}

// Registrations counts how many times name was registered.
func (r *CustomerRepository) Registrations(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.customers[name]
}

func (r *CustomerRepository) Customers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.customers))
	for name := range r.customers {
		out = append(out, name)
	}
	return out
}
