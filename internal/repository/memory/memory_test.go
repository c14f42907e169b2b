package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/model"
)

func TestStatusRepositoryAppendOrder(t *testing.T) {
	repo := NewStatusRepository()
	ctx := context.Background()

	stages := []model.DeliveryStage{model.StageDispatched, model.StageInTransit, model.StageDelivered}
	for _, stage := range stages {
		err := repo.AppendEvent(ctx, &model.StatusEvent{ParcelID: "p-1", Stage: stage})
		require.NoError(t, err)
	}

	events, err := repo.GetHistory(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, stage := range stages {
		assert.Equal(t, stage, events[i].Stage)
		assert.NotEmpty(t, events[i].EventID)
	}

	missing, err := repo.GetHistory(ctx, "p-unknown")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestOTPRepositoryRefreshKeepsID(t *testing.T) {
	repo := NewOTPRepository()
	ctx := context.Background()

	original := &model.OTPRecord{
		OTPID:       "otp-original",
		PhoneNumber: "+14155550100",
		Code:        "123456",
		Status:      model.OTPStatusPending,
	}
	require.NoError(t, repo.Insert(ctx, original))

	refreshed := &model.OTPRecord{
		OTPID:       "otp-new",
		PhoneNumber: "+14155550100",
		Code:        "654321",
		Status:      model.OTPStatusPending,
	}
	require.NoError(t, repo.Refresh(ctx, refreshed))
	assert.Equal(t, "otp-original", refreshed.OTPID)

	stored, err := repo.GetByPhone(ctx, "+14155550100")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "otp-original", stored.OTPID)
	assert.Equal(t, "654321", stored.Code)
}

func TestOTPRepositoryUpdateStatus(t *testing.T) {
	repo := NewOTPRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &model.OTPRecord{
		OTPID:       "otp-1",
		PhoneNumber: "+14155550100",
		Status:      model.OTPStatusPending,
	}))

	require.NoError(t, repo.UpdateStatus(ctx, "+14155550100", "otp-1", model.OTPStatusVerified))

	stored, err := repo.GetByPhone(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Equal(t, model.OTPStatusVerified, stored.Status)

	assert.Error(t, repo.UpdateStatus(ctx, "+10000000000", "otp-x", model.OTPStatusVerified))
}

func TestParcelRepositoryAssignCourier(t *testing.T) {
	repo := NewParcelRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Parcel{ParcelID: "p-1", Size: model.SizeSmall}))
	require.NoError(t, repo.Create(ctx, &model.Parcel{ParcelID: "p-2", Size: model.SizeLarge}))

	require.NoError(t, repo.AssignCourier(ctx, "p-1", "courier-9"))

	parcel, err := repo.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "courier-9", parcel.CourierID)

	missing, err := repo.Get(ctx, "p-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p-1", all[0].ParcelID)
	assert.Equal(t, "p-2", all[1].ParcelID)

	assert.Error(t, repo.AssignCourier(ctx, "p-404", "courier-9"))
}

func TestUserRepositoryEmailLookup(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{
		UserID: "u-1",
		Email:  "ada@example.com",
		Role:   model.RoleCustomer,
	}))

	user, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.UserID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOTPCacheExpiry(t *testing.T) {
	cache := NewOTPCache()
	ctx := context.Background()

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "123456", 60))

	code, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	require.NoError(t, cache.SetCode(ctx, "+14155550100", "999999", -1))
	code, err = cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Empty(t, code)

	require.NoError(t, cache.DeleteCode(ctx, "+14155550100"))
	code, err = cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestAuditRecorderRecentNewestFirst(t *testing.T) {
	recorder := NewAuditRecorder()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, recorder.Record(ctx, &model.OTPAuditEntry{
			OTPID:     "otp",
			Kind:      model.OTPAuditCreated,
			Timestamp: int64(i),
		}))
	}

	entries, err := recorder.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(4), entries[0].Timestamp)
	assert.Equal(t, int64(2), entries[2].Timestamp)
}
