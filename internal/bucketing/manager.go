package bucketing

import (
	"hash"
	"sync"

	"delivery-service/internal/config"

	"github.com/spaolacci/murmur3"
)

// BucketingManager assigns stable partition buckets for user rows and lock
// shards for per-key mutation serialization (OTP phone numbers, parcel IDs).
type BucketingManager struct {
	userBuckets int
	lockShards  int
	hasherPool  sync.Pool
}

func NewBucketingManager(cfg *config.Config) *BucketingManager {
	bm := &BucketingManager{
		userBuckets: cfg.Bucketing.UserBuckets,
		lockShards:  cfg.Bucketing.LockShards,
	}

	// Pool of hash functions to avoid allocation overhead on the hot path
	bm.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return bm
}

// GetUserBucket returns a consistent bucket for a user ID (0 to userBuckets-1).
func (bm *BucketingManager) GetUserBucket(userID string) int {
	return bm.getBucket(userID, bm.userBuckets)
}

// GetLockShard returns the lock shard owning the given key (0 to lockShards-1).
func (bm *BucketingManager) GetLockShard(key string) int {
	return bm.getBucket(key, bm.lockShards)
}

func (bm *BucketingManager) LockShards() int {
	return bm.lockShards
}

func (bm *BucketingManager) getBucket(key string, buckets int) int {
	if buckets <= 0 {
		return 0
	}

	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	_, _ = hasher.Write([]byte(key))

	return int(hasher.Sum64() % uint64(buckets))
}
