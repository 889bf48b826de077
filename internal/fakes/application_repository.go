// Package fakes holds in-memory stand-ins for the application service's
// collaborators. Each fake satisfies the production interface and adds
// inspection methods that only tests use.
package fakes

import (
	"context"
	"sync"

	"application-workers/internal/application"
)

// ApplicationRepository keeps applications in a slice in insertion order.
type ApplicationRepository struct {
	mu   sync.RWMutex
	apps []application.Application

	// SaveErr and RemoveErr, when set, are returned instead of touching
	// the store. RemoveErrFor fails Remove for one id only.
	SaveErr      error
	RemoveErr    error
	RemoveErrFor map[string]error
	FindErr      error
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{}
}

func (r *ApplicationRepository) Save(_ context.Context, app application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.apps = append(r.apps, app)
	return nil
}

func (r *ApplicationRepository) FindByName(_ context.Context, name string) ([]application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	out := make([]application.Application, 0)
	for _, app := range r.apps {
		if app.Name() == name {
			out = append(out, app)
		}
	}
	return out, nil
}

func (r *ApplicationRepository) FindOpen(_ context.Context) ([]application.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	out := make([]application.Application, len(r.apps))
	copy(out, r.apps)
	return out, nil
}

func (r *ApplicationRepository) Remove(_ context.Context, app application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RemoveErr != nil {
		return r.RemoveErr
	}
	if err, ok := r.RemoveErrFor[app.ID()]; ok {
		return err
	}
	kept := r.apps[:0]
	for _, stored := range r.apps {
		if stored.ID() != app.ID() {
			kept = append(kept, stored)
		}
	}
	r.apps = kept
	return nil
}

// All returns a snapshot of the stored applications.
func (r *ApplicationRepository) All() []application.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]application.Application, len(r.apps))
	copy(out, r.apps)
	return out
}

func (r *ApplicationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}

// Contains reports whether an application with app's id is stored.
func (r *ApplicationRepository) Contains(app application.Application) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.apps {
		if stored.ID() == app.ID() {
			return true
		}
	}
	return false
}

var (
	_ application.Repository         = (*ApplicationRepository)(nil)
	_ application.CustomerRepository = (*CustomerRepository)(nil)
	_ application.NotificationClient = (*UserNotificationClient)(nil)
	_ application.SweepLock          = (*SweepLock)(nil)
)
