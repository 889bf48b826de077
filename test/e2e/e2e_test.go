// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"application-workers/internal/application"
	"application-workers/internal/common/config"
	"application-workers/internal/common/database"
	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/lock"
	"application-workers/internal/common/logger"
	"application-workers/internal/customer"
	"application-workers/internal/fakes"
)

// These tests run against a disposable PostgreSQL and Redis, by default the
// ones from docker-compose on localhost. They truncate the applications and
// customers tables.

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type environment struct {
	pg        *database.PostgresClient
	redis     *database.RedisClient
	customers *customer.PostgresRepository
	notifier  *fakes.UserNotificationClient
}

func setup(t *testing.T) *environment {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	pg, err := database.NewPostgres(config.PostgresConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           port,
		Database:       getEnv("DB_NAME", "applications_test"),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		MaxConnections: 5,
		MaxIdle:        2,
		SSLMode:        "disable",
	})
	require.NoError(t, err)
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		t.Skipf("PostgreSQL unavailable: %v", err)
	}
	t.Cleanup(func() { pg.Close() })

	require.NoError(t, pg.Migrate(ctx, application.ApplicationsSchema, customer.Schema))
	_, err = pg.DB.ExecContext(ctx, `TRUNCATE applications, customers`)
	require.NoError(t, err)

	rdb, err := database.NewRedis(config.RedisConfig{Address: getEnv("REDIS_ADDRESS", "localhost:6379")})
	require.NoError(t, err)
	if err := rdb.Ping(ctx); err != nil {
		rdb.Close()
		t.Skipf("Redis unavailable: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	return &environment{
		pg:        pg,
		redis:     rdb,
		customers: customer.NewPostgresRepository(pg.DB),
		notifier:  fakes.NewUserNotificationClient(),
	}
}

func (e *environment) service(t *testing.T, now time.Time, opts ...application.ServiceOption) *application.Service {
	opts = append([]application.ServiceOption{
		application.WithServiceClock(func() time.Time { return now }),
		application.WithLogger(logger.NewTestLogger(t)),
	}, opts...)
	return application.NewService(application.NewPostgresRepository(e.pg.DB), e.notifier, e.customers, opts...)
}

func TestExpiryScenario(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	registeredAt := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	svc := env.service(t, registeredAt)

	name := "applicant-" + uuid.NewString()[:8]
	var apps []application.Application
	for _, offset := range []int{0, 1, 2} {
		app, err := application.New(name, application.WithCreatedAt(registeredAt), application.WithMonthOffset(offset))
		require.NoError(t, err)
		require.NoError(t, svc.RegisterInitialApplication(ctx, app))
		apps = append(apps, app)
	}

	isCustomer, err := env.customers.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, isCustomer, "registration should record the applicant as a customer")

	sweeper := env.service(t, registeredAt.AddDate(0, 1, 0))
	result, err := sweeper.ExpireApplications(ctx)
	require.NoError(t, err)
	require.Len(t, result.Expired, 1)
	assert.Equal(t, apps[0].ID(), result.Expired[0].ID())

	open, err := sweeper.OpenApplicationsFor(ctx, name)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{apps[1].ID(), apps[2].ID()}, ids(open))

	assert.Equal(t, []string{application.ExpiryMessage(apps[0])}, env.notifier.GetNotificationsForUser(name))

	again, err := sweeper.ExpireApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Expired, "a second sweep at the same time expires nothing")
	assert.Len(t, env.notifier.GetNotificationsForUser(name), 1)
}

func TestExpiryScenario_PerApplicant(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	registeredAt := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	svc := env.service(t, registeredAt)

	name := "applicant-" + uuid.NewString()[:8]
	for _, offset := range []int{0, 1, 2} {
		app, err := application.New(name, application.WithCreatedAt(registeredAt), application.WithMonthOffset(offset))
		require.NoError(t, err)
		require.NoError(t, svc.RegisterInitialApplication(ctx, app))
	}

	sweeper := env.service(t, registeredAt.AddDate(0, 1, 0), application.WithPolicy(application.ExpiryPolicy{
		ThresholdMonths: 1,
		Mode:            application.ModePerApplicant,
	}))
	result, err := sweeper.ExpireApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Expired, 3)

	open, err := sweeper.OpenApplicationsFor(ctx, name)
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Len(t, env.notifier.GetNotificationsForUser(name), 3)
}

func TestSweepLock(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	key := "e2e:expiry-sweep:" + uuid.NewString()
	holder := lock.NewRedisLock(env.redis.Client, key, time.Minute)
	release, err := holder.Acquire(ctx)
	require.NoError(t, err)

	svc := env.service(t, time.Now(), application.WithSweepLock(lock.NewRedisLock(env.redis.Client, key, time.Minute)))
	_, err = svc.ExpireApplications(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSweepInProgress))

	require.NoError(t, release(ctx))
	_, err = svc.ExpireApplications(ctx)
	assert.NoError(t, err)
}

func ids(apps []application.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID())
	}
	return out
}
