package campsignal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campsignal "github.com/campsignal/campsignal"
	"github.com/campsignal/campsignal/pkg/alerts"
	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/notifcenter"
	"github.com/campsignal/campsignal/pkg/realtime"
)

type allowAllVerifier struct{}

func (allowAllVerifier) Verify(_ context.Context, credential string) (string, error) {
	return credential, nil
}

type stubPrices struct{}

func (stubPrices) CurrentPrice(context.Context, string, string) (float64, error) {
	return 0, alerts.ErrCampsiteNotFound
}

type stubAvailability struct{}

func (stubAvailability) Availability(context.Context, string, string, time.Time, time.Time) ([]alerts.DateAvailability, error) {
	return nil, alerts.ErrCampsiteNotFound
}

func testDeps(t *testing.T) campsignal.Deps {
	t.Helper()

	cache := cachestore.NewMemoryStore("test")
	registry := realtime.NewRegistry(allowAllVerifier{}, cache, realtime.Config{
		EventBufferSize:   8,
		RateLimitCeiling:  30,
		RateLimitWindow:   time.Minute,
		ReconcileInterval: time.Minute,
		ShutdownTimeout:   time.Second,
	})

	center, err := notifcenter.New(notifcenter.NewMemoryStorage(), cache,
		notifcenter.WithPublisher(registry))
	require.NoError(t, err)

	storage := alerts.NewMemoryStorage()
	service, err := alerts.NewService(storage)
	require.NoError(t, err)
	evaluator, err := alerts.NewEvaluator(storage, stubPrices{}, stubAvailability{}, center)
	require.NoError(t, err)

	return campsignal.Deps{
		Cache:     cache,
		Registry:  registry,
		Center:    center,
		Alerts:    service,
		Evaluator: evaluator,
	}
}

func testConfig() campsignal.Config {
	return campsignal.Config{
		PriceSweepInterval:        time.Hour,
		AvailabilitySweepInterval: time.Hour,
		ExpirySweepInterval:       time.Hour,
		RetentionSweepInterval:    time.Hour,
		ReconcileInterval:         time.Hour,
		CacheCleanupInterval:      time.Hour,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("missing dependency", func(t *testing.T) {
		t.Parallel()

		deps := testDeps(t)
		deps.Center = nil
		_, err := campsignal.New(testConfig(), deps)
		assert.Error(t, err)
	})

	t.Run("accessors expose wired components", func(t *testing.T) {
		t.Parallel()

		deps := testDeps(t)
		app, err := campsignal.New(testConfig(), deps)
		require.NoError(t, err)
		assert.Same(t, deps.Registry, app.Registry())
		assert.Same(t, deps.Center, app.Center())
		assert.Same(t, deps.Alerts, app.Alerts())
	})
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	app, err := campsignal.New(testConfig(), testDeps(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
}
