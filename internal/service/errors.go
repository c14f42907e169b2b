package service

import (
	"errors"
	"sync"

	"delivery-service/internal/bucketing"
)

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrConflict     = errors.New("already exists")
	ErrPersistence  = errors.New("persistence unavailable")
)

// KeyedLocks serializes operations on the same logical key (a phone
// number, a parcel id) without a global lock. Keys hash onto a fixed set
// of mutex shards; distinct keys may share a shard, which only costs
// contention, never correctness.
type KeyedLocks struct {
	shards       []sync.Mutex
	bucketingMgr *bucketing.BucketingManager
}

func NewKeyedLocks(bucketingMgr *bucketing.BucketingManager) *KeyedLocks {
	return &KeyedLocks{
		shards:       make([]sync.Mutex, bucketingMgr.LockShards()),
		bucketingMgr: bucketingMgr,
	}
}

func (k *KeyedLocks) Lock(key string) {
	k.shards[k.bucketingMgr.GetLockShard(key)].Lock()
}

func (k *KeyedLocks) Unlock(key string) {
	k.shards[k.bucketingMgr.GetLockShard(key)].Unlock()
}
