// Package redis holds the hot-path OTP code cache. The cached code is an
// acceleration layer only; the Scylla record stays the source of truth.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"delivery-service/internal/client"
	"delivery-service/internal/util"
)

const otpKeyPrefix = "otp:"

type OTPCache struct {
	client *client.RedisClient
}

func NewOTPCache(redisClient *client.RedisClient) *OTPCache {
	return &OTPCache{client: redisClient}
}

func otpKey(phoneNumber string) string {
	return otpKeyPrefix + phoneNumber
}

// SetCode overwrites any previous code for the phone number, resetting the TTL.
func (c *OTPCache) SetCode(ctx context.Context, phoneNumber, code string, ttlSeconds int64) error {
	key := otpKey(phoneNumber)
	ttl := time.Duration(ttlSeconds) * time.Second

	if err := c.client.Set(ctx, key, code, ttl); err != nil {
		util.Error("Failed to cache OTP code",
			zap.String("phone_number", util.MaskPhone(phoneNumber)),
			zap.Error(err))
		return fmt.Errorf("failed to cache otp code: %w", err)
	}

	util.Debug("OTP code cached",
		zap.String("phone_number", util.MaskPhone(phoneNumber)),
		zap.Duration("ttl", ttl))
	return nil
}

// GetCode returns the cached code, or "" when the key is absent or expired.
func (c *OTPCache) GetCode(ctx context.Context, phoneNumber string) (string, error) {
	code, err := c.client.Client.Get(ctx, otpKey(phoneNumber)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		util.Error("Failed to read cached OTP code",
			zap.String("phone_number", util.MaskPhone(phoneNumber)),
			zap.Error(err))
		return "", fmt.Errorf("failed to read cached otp code: %w", err)
	}
	return code, nil
}

func (c *OTPCache) DeleteCode(ctx context.Context, phoneNumber string) error {
	if err := c.client.Del(ctx, otpKey(phoneNumber)); err != nil {
		util.Error("Failed to delete cached OTP code",
			zap.String("phone_number", util.MaskPhone(phoneNumber)),
			zap.Error(err))
		return fmt.Errorf("failed to delete cached otp code: %w", err)
	}
	return nil
}
