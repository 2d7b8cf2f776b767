package agg

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a cached aggregate stays usable.
const cacheTTL = 7 * 24 * time.Hour

// CachedAggregateActivity returns the aggregate for cfg, served from the
// activity store when a fresh entry exists for the current HEAD.
func CachedAggregateActivity(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*Aggregate, error) {
	var activity contract.CacheStore
	if mgr != nil {
		activity = mgr.GetActivityStore()
	}
	if activity == nil {
		// Fallback to direct computation
		return AggregateActivity(ctx, cfg, client)
	}

	key := generateCacheKey(ctx, cfg, client)

	if result := checkCacheHit(activity, key); result != nil {
		return result, nil
	}

	return computeAndStore(ctx, cfg, client, activity, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(activity contract.CacheStore, key string) *Aggregate {
	data, version, ts, err := activity.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}

	var snap schema.AggregateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		contract.LogWarn("Ignoring unreadable cache entry", err)
		return nil
	}
	return FromSnapshot(snap)
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, client contract.GitClient, activity contract.CacheStore, key string) (*Aggregate, error) {
	result, err := AggregateActivity(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result.Snapshot())
	if err != nil {
		contract.LogWarn("Cannot encode aggregate for cache", err)
		return result, nil
	}
	if err := activity.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Cannot store aggregate in cache", err)
	}
	return result, nil
}

// generateCacheKey creates a unique key based on analysis parameters.
// The HEAD hash invalidates entries whenever new commits land.
func generateCacheKey(ctx context.Context, cfg *contract.Config, client contract.GitClient) string {
	repoHash, err := client.GetRepoHash(ctx, cfg.RepoPath)
	if err != nil {
		repoHash = ""
	}

	key := fmt.Sprintf("%s|%s|%s|%s|%s",
		cfg.RepoPath,
		repoHash,
		cfg.Since,
		cfg.Until,
		cfg.GitBackend,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
