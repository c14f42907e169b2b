package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/config"
	"delivery-service/internal/util"
)

// Statements holds the CQL text used by the repositories. Each call
// builds its own gocql.Query from these, so no query state is shared
// between goroutines; gocql reuses the server-side prepared statement
// for identical text.
type Statements struct {
	GetOTPByPhone   string
	InsertOTP       string
	RefreshOTP      string
	UpdateOTPStatus string

	AppendStatusEvent string
	GetStatusHistory  string

	InsertParcel        string
	GetParcel           string
	AssignParcelCourier string

	InsertBox string
	GetBox    string

	InsertUser        string
	InsertUserByEmail string
	GetUserByEmail    string
}

type ScyllaClient struct {
	Session *gocql.Session
	config  *config.ScyllaConfig
	Stmts   *Statements
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
		Stmts:   defaultStatements(),
	}

	util.Info("ScyllaDB client initialized",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func defaultStatements() *Statements {
	return &Statements{
		GetOTPByPhone: `
        SELECT phone_number, otp_id, service_provider_id, code, created_at, expires_at, status
        FROM otps WHERE phone_number = ?`,

		InsertOTP: `
        INSERT INTO otps (phone_number, otp_id, service_provider_id, code, created_at, expires_at, status)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,

		RefreshOTP: `
        UPDATE otps SET code = ?, created_at = ?, expires_at = ?, status = ?, service_provider_id = ?
        WHERE phone_number = ?`,

		UpdateOTPStatus: `
        UPDATE otps SET status = ? WHERE phone_number = ?`,

		AppendStatusEvent: `
        INSERT INTO delivery_status_events
            (parcel_id, event_id, stage, location, service_provider_id, event_time, details)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,

		GetStatusHistory: `
        SELECT parcel_id, event_id, stage, location, service_provider_id, event_time, details
        FROM delivery_status_events WHERE parcel_id = ?`,

		InsertParcel: `
        INSERT INTO parcels
            (parcel_id, size, destination, is_fragile, created_at, status, user_id, delivery_box_id, courier_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		GetParcel: `
        SELECT parcel_id, size, destination, is_fragile, created_at, status, user_id, delivery_box_id, courier_id
        FROM parcels WHERE parcel_id = ?`,

		AssignParcelCourier: `
        UPDATE parcels SET courier_id = ? WHERE parcel_id = ?`,

		InsertBox: `
        INSERT INTO delivery_boxes (box_id, type, address, is_secured, created_at, status)
        VALUES (?, ?, ?, ?, ?, ?)`,

		GetBox: `
        SELECT box_id, type, address, is_secured, created_at, status
        FROM delivery_boxes WHERE box_id = ?`,

		InsertUser: `
        INSERT INTO users
            (bucket, user_id, name, email, role, password_hash, password_salt, pepper_version, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		InsertUserByEmail: `
        INSERT INTO users_by_email
            (email, bucket, user_id, name, role, password_hash, password_salt, pepper_version, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		GetUserByEmail: `
        SELECT email, bucket, user_id, name, role, password_hash, password_salt, pepper_version, created_at
        FROM users_by_email WHERE email = ?`,
	}
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}

	util.Debug("ScyllaDB health check passed", zap.String("cluster_name", clusterName))
	return nil
}

func (s *ScyllaClient) ExecuteWithRetry(query *gocql.Query, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := query.Exec(); err != nil {
			lastErr = err
			if i < maxRetries {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}

func (s *ScyllaClient) ScanWithRetry(query *gocql.Query, dest ...interface{}) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if err := query.Scan(dest...); err != nil {
			lastErr = err
			if err == gocql.ErrNotFound {
				return err
			}
			if i < 2 {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
