// Package audit writes OTP lifecycle entries to ClickHouse for the ops
// audit trail. Callers treat recording as best-effort.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"delivery-service/internal/client"
	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// ClickHouseRecorder appends entries to the otp_audit table and serves
// the recent-entries query behind GET /otp-logs.
type ClickHouseRecorder struct {
	client *client.ClickHouseClient
}

func NewClickHouseRecorder(chClient *client.ClickHouseClient) *ClickHouseRecorder {
	return &ClickHouseRecorder{client: chClient}
}

// EnsureSchema creates the audit table if it does not exist yet. Called
// once at startup.
func (r *ClickHouseRecorder) EnsureSchema(ctx context.Context) error {
	err := r.client.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS otp_audit (
            otp_id String,
            phone_number String,
            service_provider_id String,
            kind String,
            error String,
            ts DateTime64(3)
        ) ENGINE = MergeTree()
        ORDER BY (ts)`)
	if err != nil {
		return fmt.Errorf("failed to ensure otp_audit schema: %w", err)
	}
	return nil
}

func (r *ClickHouseRecorder) Record(ctx context.Context, entry *model.OTPAuditEntry) error {
	err := r.client.Exec(ctx, `
        INSERT INTO otp_audit (otp_id, phone_number, service_provider_id, kind, error, ts)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.OTPID,
		entry.PhoneNumber,
		entry.ServiceProviderID,
		entry.Kind,
		entry.Error,
		time.UnixMilli(entry.Timestamp))
	if err != nil {
		util.Error("Failed to record OTP audit entry",
			zap.String("otp_id", entry.OTPID),
			zap.String("kind", entry.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to record otp audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *ClickHouseRecorder) Recent(ctx context.Context, limit int) ([]model.OTPAuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.client.QueryRows(ctx, `
        SELECT otp_id, phone_number, service_provider_id, kind, error, ts
        FROM otp_audit
        ORDER BY ts DESC
        LIMIT ?`, limit)
	if err != nil {
		util.Error("Failed to query OTP audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to query otp audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.OTPAuditEntry
	for rows.Next() {
		var (
			entry model.OTPAuditEntry
			ts    time.Time
		)
		if err := rows.Scan(&entry.OTPID, &entry.PhoneNumber, &entry.ServiceProviderID,
			&entry.Kind, &entry.Error, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan otp audit entry: %w", err)
		}
		entry.Timestamp = ts.UnixMilli()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read otp audit entries: %w", err)
	}

	return entries, nil
}
