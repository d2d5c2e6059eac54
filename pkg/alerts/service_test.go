package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsignal/campsignal/pkg/alerts"
)

func newTestService(t *testing.T) (*alerts.Service, *alerts.MemoryStorage) {
	t.Helper()
	storage := alerts.NewMemoryStorage()
	service, err := alerts.NewService(storage)
	require.NoError(t, err)
	return service, storage
}

func TestService_CreatePriceAlert(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		a, err := service.CreatePriceAlert(context.Background(), alerts.CreatePriceAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			TargetPrice:   75.50,
			EquipmentType: "rv",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, alerts.StatusActive, a.Status)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		cases := []struct {
			name   string
			params alerts.CreatePriceAlertParams
		}{
			{"missing user", alerts.CreatePriceAlertParams{CampsiteID: "c", TargetPrice: 50, EquipmentType: "tent"}},
			{"missing campsite", alerts.CreatePriceAlertParams{UserID: "u", TargetPrice: 50, EquipmentType: "tent"}},
			{"zero target price", alerts.CreatePriceAlertParams{UserID: "u", CampsiteID: "c", EquipmentType: "tent"}},
			{"negative target price", alerts.CreatePriceAlertParams{UserID: "u", CampsiteID: "c", TargetPrice: -5, EquipmentType: "tent"}},
			{"unknown equipment", alerts.CreatePriceAlertParams{UserID: "u", CampsiteID: "c", TargetPrice: 50, EquipmentType: "yacht"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, err := service.CreatePriceAlert(context.Background(), tc.params)
				assert.ErrorIs(t, err, alerts.ErrInvalidAlert)
			})
		}
	})
}

func TestService_CreateAvailabilityAlert(t *testing.T) {
	t.Parallel()

	checkIn := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		a, err := service.CreateAvailabilityAlert(context.Background(), alerts.CreateAvailabilityAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			CheckIn:       checkIn,
			CheckOut:      checkIn.AddDate(0, 0, 3),
			EquipmentType: "cabin",
		})
		require.NoError(t, err)
		assert.Equal(t, alerts.StatusActive, a.Status)
		assert.Len(t, a.Dates(), 4, "check-in through check-out inclusive")
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		_, err := service.CreateAvailabilityAlert(context.Background(), alerts.CreateAvailabilityAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			CheckIn:       checkIn,
			CheckOut:      checkIn.AddDate(0, 0, -1),
			EquipmentType: "tent",
		})
		assert.ErrorIs(t, err, alerts.ErrInvalidAlert)
	})

	t.Run("stay entirely in the past", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		pastIn := time.Now().AddDate(0, -1, 0)
		_, err := service.CreateAvailabilityAlert(context.Background(), alerts.CreateAvailabilityAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			CheckIn:       pastIn,
			CheckOut:      pastIn.AddDate(0, 0, 2),
			EquipmentType: "tent",
		})
		assert.ErrorIs(t, err, alerts.ErrInvalidAlert)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("owner cancels active alert", func(t *testing.T) {
		t.Parallel()

		service, storage := newTestService(t)
		ctx := context.Background()

		a, err := service.CreatePriceAlert(ctx, alerts.CreatePriceAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			TargetPrice:   50,
			EquipmentType: "tent",
		})
		require.NoError(t, err)

		require.NoError(t, service.CancelPriceAlert(ctx, "user-1", a.ID))

		stored, err := storage.GetPriceAlert(ctx, "user-1", a.ID)
		require.NoError(t, err)
		assert.Equal(t, alerts.StatusCancelled, stored.Status)
	})

	t.Run("non-owner gets not found", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService(t)
		ctx := context.Background()

		a, err := service.CreatePriceAlert(ctx, alerts.CreatePriceAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			TargetPrice:   50,
			EquipmentType: "tent",
		})
		require.NoError(t, err)

		err = service.CancelPriceAlert(ctx, "user-2", a.ID)
		assert.ErrorIs(t, err, alerts.ErrAlertNotFound)
	})

	t.Run("cancelling a triggered alert fails", func(t *testing.T) {
		t.Parallel()

		service, storage := newTestService(t)
		ctx := context.Background()

		a, err := service.CreatePriceAlert(ctx, alerts.CreatePriceAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			TargetPrice:   50,
			EquipmentType: "tent",
		})
		require.NoError(t, err)
		require.NoError(t, storage.TransitionPriceAlert(ctx, a.ID, alerts.StatusActive, alerts.StatusClaimed))
		require.NoError(t, storage.TransitionPriceAlert(ctx, a.ID, alerts.StatusClaimed, alerts.StatusTriggered))

		err = service.CancelPriceAlert(ctx, "user-1", a.ID)
		assert.ErrorIs(t, err, alerts.ErrAlertNotTransitionable)
	})
}

func TestService_List(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()

	for range 3 {
		_, err := service.CreatePriceAlert(ctx, alerts.CreatePriceAlertParams{
			UserID:        "user-1",
			CampsiteID:    "camp-1",
			TargetPrice:   50,
			EquipmentType: "tent",
		})
		require.NoError(t, err)
	}

	list, err := service.ListPriceAlerts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = service.ListPriceAlerts(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}
