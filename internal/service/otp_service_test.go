package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/bucketing"
	"delivery-service/internal/config"
	"delivery-service/internal/model"
	"delivery-service/internal/repository/memory"
)

type fakeNotifier struct {
	mu        sync.Mutex
	generated []string
	failed    []string
}

func (f *fakeNotifier) NotifyOTPGenerated(ctx context.Context, serviceProviderID, otpID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated = append(f.generated, otpID)
}

func (f *fakeNotifier) NotifyOTPGenerationFailed(ctx context.Context, errorID, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, errorID)
}

// flakyOTPCache fails writes and deletes while failing is set, leaving
// whatever it held before the outage in place.
type flakyOTPCache struct {
	*memory.OTPCache
	failing bool
}

func (c *flakyOTPCache) SetCode(ctx context.Context, phoneNumber, code string, ttlSeconds int64) error {
	if c.failing {
		return errors.New("cache unavailable")
	}
	return c.OTPCache.SetCode(ctx, phoneNumber, code, ttlSeconds)
}

func (c *flakyOTPCache) DeleteCode(ctx context.Context, phoneNumber string) error {
	if c.failing {
		return errors.New("cache unavailable")
	}
	return c.OTPCache.DeleteCode(ctx, phoneNumber)
}

func newOTPTestService(cfg config.OTPConfig) (*OTPService, *memory.OTPRepository, *memory.AuditRecorder) {
	repo := memory.NewOTPRepository()
	recorder := memory.NewAuditRecorder()
	locks := NewKeyedLocks(bucketing.NewBucketingManager(&config.Config{
		Bucketing: config.BucketingConfig{UserBuckets: 64, LockShards: 16},
	}))
	svc := NewOTPService(repo, memory.NewOTPCache(), recorder, &fakeNotifier{}, locks, cfg)
	return svc, repo, recorder
}

func TestGenerateCreatesSixDigitCode(t *testing.T) {
	svc, _, recorder := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	record, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), record.Code)
	assert.Equal(t, model.OTPStatusPending, record.Status)
	assert.Equal(t, record.CreatedAt+(10*time.Minute).Milliseconds(), record.ExpiresAt)

	entries, err := recorder.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.OTPAuditCreated, entries[0].Kind)
	assert.Equal(t, "+14155550100", entries[0].PhoneNumber)
}

func TestGenerateRejectsInvalidPhone(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})

	for _, phone := range []string{"", "4155550100", "+0415555", "+1415555abc"} {
		_, err := svc.Generate(context.Background(), phone, "provider-1")
		assert.ErrorIs(t, err, ErrInvalidInput, "phone %q", phone)
	}
}

func TestGenerateTwiceKeepsSameOTPID(t *testing.T) {
	svc, _, recorder := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	second, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	assert.Equal(t, first.OTPID, second.OTPID)

	entries, err := recorder.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.OTPAuditUpdated, entries[0].Kind)
}

func TestRegenerateReplacesCodeForVerification(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	second, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)
	for second.Code == first.Code {
		second, err = svc.Generate(ctx, "+14155550100", "provider-1")
		require.NoError(t, err)
	}

	_, err = svc.Verify(ctx, "+14155550100", first.Code)
	assert.ErrorIs(t, err, ErrNotFound)

	verified, err := svc.Verify(ctx, "+14155550100", second.Code)
	require.NoError(t, err)
	assert.Equal(t, model.OTPStatusVerified, verified.Status)
}

func TestVerifySurvivesStaleCacheEntry(t *testing.T) {
	repo := memory.NewOTPRepository()
	cache := &flakyOTPCache{OTPCache: memory.NewOTPCache()}
	locks := NewKeyedLocks(bucketing.NewBucketingManager(&config.Config{
		Bucketing: config.BucketingConfig{UserBuckets: 64, LockShards: 16},
	}))
	svc := NewOTPService(repo, cache, memory.NewAuditRecorder(), &fakeNotifier{}, locks, config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	// The cache goes down for the second generate, so it still holds the
	// first code when it comes back.
	cache.failing = true
	second, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)
	for second.Code == first.Code {
		second, err = svc.Generate(ctx, "+14155550100", "provider-1")
		require.NoError(t, err)
	}
	cache.failing = false

	cached, err := cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	require.Equal(t, first.Code, cached)

	verified, err := svc.Verify(ctx, "+14155550100", second.Code)
	require.NoError(t, err)
	assert.Equal(t, model.OTPStatusVerified, verified.Status)

	cached, err = cache.GetCode(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestVerifySuccess(t *testing.T) {
	svc, repo, recorder := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	issued, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, "+14155550100", issued.Code)
	require.NoError(t, err)
	assert.Equal(t, model.OTPStatusVerified, verified.Status)

	stored, err := repo.GetByPhone(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Equal(t, model.OTPStatusVerified, stored.Status)

	entries, err := recorder.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OTPAuditVerifySuccess, entries[0].Kind)
}

func TestVerifyWrongCode(t *testing.T) {
	svc, _, recorder := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	issued, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == issued.Code {
		wrong = "000001"
	}
	_, err = svc.Verify(ctx, "+14155550100", wrong)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := recorder.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OTPAuditVerifyFailed, entries[0].Kind)
}

func TestVerifyUnknownPhone(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})

	_, err := svc.Verify(context.Background(), "+14155550100", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, repo, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	issued, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	issued.ExpiresAt = time.Now().UnixMilli() - 1
	require.NoError(t, repo.Insert(ctx, issued))

	_, err = svc.Verify(ctx, "+14155550100", issued.Code)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyReusableByDefault(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	issued, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "+14155550100", issued.Code)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "+14155550100", issued.Code)
	assert.NoError(t, err)
}

func TestVerifySingleUse(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute, SingleUse: true})
	ctx := context.Background()

	issued, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "+14155550100", issued.Code)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "+14155550100", issued.Code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentLogs(t *testing.T) {
	svc, _, _ := newOTPTestService(config.OTPConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	_, err := svc.Generate(ctx, "+14155550100", "provider-1")
	require.NoError(t, err)
	_, err = svc.Generate(ctx, "+14155550101", "provider-1")
	require.NoError(t, err)

	entries, err := svc.RecentLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
