package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"delivery-service/internal/config"
	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// phoneRegex accepts E.164 numbers only.
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// OTPService owns OTP issuance and verification. Operations on the same
// phone number are serialized through keyed locks so a concurrent
// generate/verify pair cannot interleave reads and writes.
type OTPService struct {
	otpRepo  model.OTPRepository
	cache    model.OTPCache
	audit    model.AuditRecorder
	notifier model.ServiceProviderNotifier
	locks    *KeyedLocks
	cfg      config.OTPConfig
}

func NewOTPService(
	otpRepo model.OTPRepository,
	cache model.OTPCache,
	audit model.AuditRecorder,
	notifier model.ServiceProviderNotifier,
	locks *KeyedLocks,
	cfg config.OTPConfig,
) *OTPService {
	return &OTPService{
		otpRepo:  otpRepo,
		cache:    cache,
		audit:    audit,
		notifier: notifier,
		locks:    locks,
		cfg:      cfg,
	}
}

// Generate issues a fresh 6-digit code for the phone number. A second
// generate for the same number overwrites the code and timestamps but
// keeps the original otpId, so providers can correlate retries.
func (s *OTPService) Generate(ctx context.Context, phoneNumber, serviceProviderID string) (*model.OTPRecord, error) {
	if !phoneRegex.MatchString(phoneNumber) {
		return nil, fmt.Errorf("%w: phone number must be E.164", ErrInvalidInput)
	}

	code, err := randomCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp code: %w", err)
	}

	s.locks.Lock(phoneNumber)
	defer s.locks.Unlock(phoneNumber)

	now := time.Now().UnixMilli()
	record := &model.OTPRecord{
		OTPID:             uuid.New().String(),
		PhoneNumber:       phoneNumber,
		ServiceProviderID: serviceProviderID,
		Code:              code,
		CreatedAt:         now,
		ExpiresAt:         now + s.cfg.TTL.Milliseconds(),
		Status:            model.OTPStatusPending,
	}

	existing, err := s.otpRepo.GetByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, s.failGeneration(ctx, phoneNumber, err)
	}

	auditKind := model.OTPAuditCreated
	if existing != nil {
		record.OTPID = existing.OTPID
		auditKind = model.OTPAuditUpdated
		err = s.otpRepo.Refresh(ctx, record)
	} else {
		err = s.otpRepo.Insert(ctx, record)
	}
	if err != nil {
		return nil, s.failGeneration(ctx, phoneNumber, err)
	}

	if cacheErr := s.cache.SetCode(ctx, phoneNumber, code, int64(s.cfg.TTL.Seconds())); cacheErr != nil {
		util.Warn("OTP cache write failed",
			zap.String("phone_number", util.MaskPhone(phoneNumber)),
			zap.Error(cacheErr))
		// Drop any previous entry so the cache never holds a code older
		// than the record.
		if delErr := s.cache.DeleteCode(ctx, phoneNumber); delErr != nil {
			util.Warn("OTP cache cleanup failed",
				zap.String("phone_number", util.MaskPhone(phoneNumber)),
				zap.Error(delErr))
		}
	}

	s.recordAudit(ctx, &model.OTPAuditEntry{
		OTPID:             record.OTPID,
		PhoneNumber:       phoneNumber,
		ServiceProviderID: serviceProviderID,
		Kind:              auditKind,
		Timestamp:         now,
	})

	go s.notifier.NotifyOTPGenerated(context.WithoutCancel(ctx), serviceProviderID, record.OTPID)

	util.Info("OTP issued",
		zap.String("otp_id", record.OTPID),
		zap.String("phone_number", util.MaskPhone(phoneNumber)),
		zap.String("kind", auditKind))
	return record, nil
}

// Verify checks the submitted code against the stored record. A wrong or
// unknown code is ErrNotFound; a correct but stale one is ErrExpired. On
// success the record flips to VERIFIED. When single-use mode is on, a
// VERIFIED record cannot pass a second time.
func (s *OTPService) Verify(ctx context.Context, phoneNumber, code string) (*model.OTPRecord, error) {
	if !phoneRegex.MatchString(phoneNumber) {
		return nil, fmt.Errorf("%w: phone number must be E.164", ErrInvalidInput)
	}
	if len(code) != 6 {
		return nil, fmt.Errorf("%w: code must be 6 digits", ErrInvalidInput)
	}

	s.locks.Lock(phoneNumber)
	defer s.locks.Unlock(phoneNumber)

	record, err := s.otpRepo.GetByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if record == nil || record.Code != code {
		s.failVerification(ctx, phoneNumber, "", "code mismatch")
		return nil, fmt.Errorf("%w: no matching otp", ErrNotFound)
	}

	// The store is authoritative. The cache only mirrors the active code,
	// and a write that failed during generation can leave it stale, so a
	// mismatch here means repair, not rejection.
	if cached, cacheErr := s.cache.GetCode(ctx, phoneNumber); cacheErr == nil && cached != "" && cached != record.Code {
		if delErr := s.cache.DeleteCode(ctx, phoneNumber); delErr != nil {
			util.Warn("OTP cache cleanup failed",
				zap.String("phone_number", util.MaskPhone(phoneNumber)),
				zap.Error(delErr))
		}
	}
	if s.cfg.SingleUse && record.Status == model.OTPStatusVerified {
		s.failVerification(ctx, phoneNumber, record.OTPID, "code already used")
		return nil, fmt.Errorf("%w: otp already used", ErrNotFound)
	}
	if record.ExpiresAt <= time.Now().UnixMilli() {
		s.failVerification(ctx, phoneNumber, record.OTPID, "code expired")
		return nil, fmt.Errorf("%w: otp expired", ErrExpired)
	}

	if err := s.otpRepo.UpdateStatus(ctx, phoneNumber, record.OTPID, model.OTPStatusVerified); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	record.Status = model.OTPStatusVerified

	if s.cfg.SingleUse {
		if err := s.cache.DeleteCode(ctx, phoneNumber); err != nil {
			util.Warn("OTP cache delete failed",
				zap.String("phone_number", util.MaskPhone(phoneNumber)),
				zap.Error(err))
		}
	}

	s.recordAudit(ctx, &model.OTPAuditEntry{
		OTPID:             record.OTPID,
		PhoneNumber:       phoneNumber,
		ServiceProviderID: record.ServiceProviderID,
		Kind:              model.OTPAuditVerifySuccess,
		Timestamp:         time.Now().UnixMilli(),
	})

	util.Info("OTP verified",
		zap.String("otp_id", record.OTPID),
		zap.String("phone_number", util.MaskPhone(phoneNumber)))
	return record, nil
}

// RecentLogs returns the newest audit entries, for the ops log endpoint.
func (s *OTPService) RecentLogs(ctx context.Context, limit int) ([]model.OTPAuditEntry, error) {
	entries, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return entries, nil
}

func (s *OTPService) failGeneration(ctx context.Context, phoneNumber string, cause error) error {
	errorID := uuid.New().String()

	s.recordAudit(ctx, &model.OTPAuditEntry{
		OTPID:       errorID,
		PhoneNumber: phoneNumber,
		Kind:        model.OTPAuditGenerateFailed,
		Error:       cause.Error(),
		Timestamp:   time.Now().UnixMilli(),
	})
	go s.notifier.NotifyOTPGenerationFailed(context.WithoutCancel(ctx), errorID, cause.Error())

	util.Error("OTP generation failed",
		zap.String("error_id", errorID),
		zap.String("phone_number", util.MaskPhone(phoneNumber)),
		zap.Error(cause))
	return fmt.Errorf("%w: %v", ErrPersistence, cause)
}

func (s *OTPService) failVerification(ctx context.Context, phoneNumber, otpID, reason string) {
	s.recordAudit(ctx, &model.OTPAuditEntry{
		OTPID:       otpID,
		PhoneNumber: phoneNumber,
		Kind:        model.OTPAuditVerifyFailed,
		Error:       reason,
		Timestamp:   time.Now().UnixMilli(),
	})
}

func (s *OTPService) recordAudit(ctx context.Context, entry *model.OTPAuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		util.Warn("OTP audit write failed",
			zap.String("kind", entry.Kind),
			zap.Error(err))
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
