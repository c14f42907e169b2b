package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// OTPRepository stores at most one OTP record per phone number; the phone
// number is the partition key, so refreshes overwrite in place.
type OTPRepository struct {
	client *ScyllaClient
}

func NewOTPRepository(client *ScyllaClient, logger *zap.Logger) *OTPRepository {
	return &OTPRepository{client: client}
}

func (r *OTPRepository) GetByPhone(ctx context.Context, phoneNumber string) (*model.OTPRecord, error) {
	record := &model.OTPRecord{}

	query := r.client.Query(r.client.Stmts.GetOTPByPhone, phoneNumber).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&record.PhoneNumber, &record.OTPID, &record.ServiceProviderID,
		&record.Code, &record.CreatedAt, &record.ExpiresAt, &record.Status)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		util.Error("Failed to get OTP by phone",
			zap.String("phone_number", util.MaskPhone(phoneNumber)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get OTP by phone: %w", err)
	}

	return record, nil
}

func (r *OTPRepository) Insert(ctx context.Context, record *model.OTPRecord) error {
	query := r.client.Query(r.client.Stmts.InsertOTP,
		record.PhoneNumber, record.OTPID, record.ServiceProviderID,
		record.Code, record.CreatedAt, record.ExpiresAt, record.Status).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to insert OTP",
			zap.String("phone_number", util.MaskPhone(record.PhoneNumber)),
			zap.String("otp_id", record.OTPID),
			zap.Error(err))
		return fmt.Errorf("failed to insert OTP: %w", err)
	}

	util.Debug("OTP inserted",
		zap.String("otp_id", record.OTPID),
		zap.Int64("expires_at", record.ExpiresAt))
	return nil
}

// Refresh overwrites code, timestamps and status for an existing phone
// number. The otp_id column is left untouched on purpose.
func (r *OTPRepository) Refresh(ctx context.Context, record *model.OTPRecord) error {
	query := r.client.Query(r.client.Stmts.RefreshOTP,
		record.Code, record.CreatedAt, record.ExpiresAt, record.Status,
		record.ServiceProviderID, record.PhoneNumber).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to refresh OTP",
			zap.String("phone_number", util.MaskPhone(record.PhoneNumber)),
			zap.String("otp_id", record.OTPID),
			zap.Error(err))
		return fmt.Errorf("failed to refresh OTP: %w", err)
	}

	return nil
}

func (r *OTPRepository) UpdateStatus(ctx context.Context, phoneNumber, otpID, status string) error {
	query := r.client.Query(r.client.Stmts.UpdateOTPStatus, status, phoneNumber).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update OTP status",
			zap.String("otp_id", otpID),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update OTP status: %w", err)
	}

	return nil
}
