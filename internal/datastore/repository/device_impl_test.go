package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamon/aquamon-go/internal/datastore/entities"
	"github.com/aquamon/aquamon-go/internal/errors"
)

func TestDeviceRepositoryCreateAndGet(t *testing.T) {
	repo := NewDeviceRepository(setupTestDB(t))
	ctx := context.Background()

	device := &entities.Device{
		DeviceID: "pump-001",
		Name:     "Basement pump",
		Type:     entities.DeviceTypeWaterPump,
		IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, device))
	assert.NotZero(t, device.ID)

	got, err := repo.GetByDeviceID(ctx, "pump-001")
	require.NoError(t, err)
	assert.Equal(t, "Basement pump", got.Name)
	assert.Equal(t, entities.DeviceTypeWaterPump, got.Type)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastSeenAt)
}

func TestDeviceRepositoryGetMissing(t *testing.T) {
	repo := NewDeviceRepository(setupTestDB(t))

	_, err := repo.GetByDeviceID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeviceRepositoryDuplicateDeviceID(t *testing.T) {
	repo := NewDeviceRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Device{DeviceID: "pump-001", Type: entities.DeviceTypeWaterPump}))
	err := repo.Create(ctx, &entities.Device{DeviceID: "pump-001", Type: entities.DeviceTypeHVAC})
	assert.Error(t, err, "device_id carries a unique index")
}

func TestDeviceRepositoryListActiveOrdering(t *testing.T) {
	repo := NewDeviceRepository(setupTestDB(t))
	ctx := context.Background()

	for _, d := range []entities.Device{
		{DeviceID: "c-leak", Type: entities.DeviceTypeLeakDetector, IsActive: true},
		{DeviceID: "a-pump", Type: entities.DeviceTypeWaterPump, IsActive: true},
		{DeviceID: "b-hvac", Type: entities.DeviceTypeHVAC, IsActive: false},
	} {
		device := d
		require.NoError(t, repo.Create(ctx, &device))
	}

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a-pump", active[0].DeviceID)
	assert.Equal(t, "c-leak", active[1].DeviceID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeviceRepositoryTouchLastSeen(t *testing.T) {
	repo := NewDeviceRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Device{DeviceID: "pump-001", Type: entities.DeviceTypeWaterPump, IsActive: true}))

	seenAt := time.Now().Truncate(time.Second)
	require.NoError(t, repo.TouchLastSeen(ctx, "pump-001", seenAt))

	got, err := repo.GetByDeviceID(ctx, "pump-001")
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenAt)
	assert.WithinDuration(t, seenAt, *got.LastSeenAt, time.Second)

	err = repo.TouchLastSeen(ctx, "ghost", seenAt)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
