package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"delivery-service/internal/bucketing"
	"delivery-service/internal/model"
	"delivery-service/internal/util"
)

// UserRepository stores users partitioned by a murmur3 bucket, with a
// denormalized users_by_email table for credential lookups.
type UserRepository struct {
	client       *ScyllaClient
	bucketingMgr *bucketing.BucketingManager
}

func NewUserRepository(client *ScyllaClient, bucketingMgr *bucketing.BucketingManager, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:       client,
		bucketingMgr: bucketingMgr,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Bucket = r.bucketingMgr.GetUserBucket(user.UserID)

	query := r.client.Query(r.client.Stmts.InsertUser,
		user.Bucket, user.UserID, user.Name, user.Email, string(user.Role),
		user.PasswordHash, user.PasswordSalt, user.PepperVersion, user.CreatedAt).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create user",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	emailQuery := r.client.Query(r.client.Stmts.InsertUserByEmail,
		user.Email, user.Bucket, user.UserID, user.Name, string(user.Role),
		user.PasswordHash, user.PasswordSalt, user.PepperVersion, user.CreatedAt).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(emailQuery, 2); err != nil {
		util.Error("Failed to create user email lookup",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create user email lookup: %w", err)
	}

	util.Debug("User created",
		zap.String("user_id", user.UserID),
		zap.Int("bucket", user.Bucket))
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var role string

	query := r.client.Query(r.client.Stmts.GetUserByEmail, email).WithContext(ctx)

	err := r.client.ScanWithRetry(query,
		&user.Email, &user.Bucket, &user.UserID, &user.Name, &role,
		&user.PasswordHash, &user.PasswordSalt, &user.PepperVersion, &user.CreatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		util.Error("Failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user.Role = model.Role(role)
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	iter := r.client.Query(`
        SELECT bucket, user_id, name, email, role, created_at FROM users`).WithContext(ctx).Iter()

	var users []model.User
	var (
		u    model.User
		role string
	)
	for iter.Scan(&u.Bucket, &u.UserID, &u.Name, &u.Email, &role, &u.CreatedAt) {
		u.Role = model.Role(role)
		users = append(users, u)
		u = model.User{}
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
