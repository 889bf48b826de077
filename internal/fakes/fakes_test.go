package fakes

import (
	"context"
	"errors"
	"testing"
	"time"

	"application-workers/internal/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustApp(t *testing.T, name string, opts ...application.Option) application.Application {
	t.Helper()
	app, err := application.New(name, opts...)
	require.NoError(t, err)
	return app
}

func TestApplicationRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()

	a1 := mustApp(t, "fred")
	a2 := mustApp(t, "barney")
	a3 := mustApp(t, "fred")

	for _, app := range []application.Application{a1, a2, a3} {
		require.NoError(t, repo.Save(ctx, app))
	}

	fred, err := repo.FindByName(ctx, "fred")
	require.NoError(t, err)
	assert.Equal(t, []application.Application{a1, a3}, fred)

	all, err := repo.FindOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []application.Application{a1, a2, a3}, all)

	none, err := repo.FindByName(ctx, "wilma")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestApplicationRepository_DuplicateSaveAndRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	app := mustApp(t, "fred")
	other := mustApp(t, "fred")

	require.NoError(t, repo.Save(ctx, app))
	require.NoError(t, repo.Save(ctx, other))
	require.NoError(t, repo.Save(ctx, app))
	assert.Equal(t, 3, repo.Len())

	require.NoError(t, repo.Remove(ctx, app))
	assert.Equal(t, 1, repo.Len())
	assert.False(t, repo.Contains(app))
	assert.True(t, repo.Contains(other))
}

func TestApplicationRepository_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	require.NoError(t, repo.Save(ctx, mustApp(t, "fred")))

	snapshot := repo.All()
	require.NoError(t, repo.Remove(ctx, snapshot[0]))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 0, repo.Len())
}

func TestApplicationRepository_InjectedErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	app := mustApp(t, "fred", application.WithCreatedAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	repo.SaveErr = errors.New("disk full")
	assert.EqualError(t, repo.Save(ctx, app), "disk full")
	assert.Equal(t, 0, repo.Len())

	repo.SaveErr = nil
	require.NoError(t, repo.Save(ctx, app))
	repo.RemoveErrFor = map[string]error{app.ID(): errors.New("locked row")}
	assert.EqualError(t, repo.Remove(ctx, app), "locked row")
	assert.True(t, repo.Contains(app))
}

func TestCustomerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository()

	exists, err := repo.Exists(ctx, "fred")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.RegisterCustomer(ctx, "fred"))
	require.NoError(t, repo.RegisterCustomer(ctx, "fred"))

	exists, err = repo.Exists(ctx, "fred")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 2, repo.Registrations("fred"))
	assert.Equal(t, []string{"fred"}, repo.Customers())
}

func TestUserNotificationClient(t *testing.T) {
	ctx := context.Background()
	client := NewUserNotificationClient()

	assert.Empty(t, client.GetNotificationsForUser("fred"))

	require.NoError(t, client.NotifyUser(ctx, "fred", "first"))
	require.NoError(t, client.NotifyUser(ctx, "fred", "second"))
	require.NoError(t, client.NotifyUser(ctx, "barney", "hello"))

	assert.Equal(t, []string{"first", "second"}, client.GetNotificationsForUser("fred"))
	assert.Equal(t, 3, client.Total())

	client.FailFor("barney", errors.New("bounced"))
	assert.EqualError(t, client.NotifyUser(ctx, "barney", "again"), "bounced")
	assert.Equal(t, []string{"hello"}, client.GetNotificationsForUser("barney"))
}

func TestSweepLock(t *testing.T) {
	ctx := context.Background()
	lock := NewSweepLock()

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx)
	require.ErrorIs(t, err, ErrHeld)

	require.NoError(t, release(ctx))
	assert.Error(t, release(ctx))

	acquired, released := lock.Counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
}
