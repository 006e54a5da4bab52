package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	PublicProfileKeyPrefix = "profile:public:%s"
	PopularTagsKeyPrefix   = "tags:popular:%d"
	MetadataKeyPrefix      = "metadata:%s"
	RevokedTokenKeyPrefix  = "blacklist:%s"
)

const (
	PublicProfileTTL = 5 * time.Minute
	PopularTagsTTL   = 5 * time.Minute
	MetadataTTL      = 24 * time.Hour
)

func PublicProfileKey(username string) string {
	return fmt.Sprintf(PublicProfileKeyPrefix, username)
}

func PopularTagsKey(limit int) string {
	return fmt.Sprintf(PopularTagsKeyPrefix, limit)
}

// MetadataKey hashes the URL so arbitrary input stays a bounded key.
func MetadataKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf(MetadataKeyPrefix, hex.EncodeToString(sum[:]))
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePublicProfile(ctx context.Context, username string) {
	Invalidate(ctx, PublicProfileKey(username))
}

// InvalidatePopularTags drops every cached popular-tags page.
func InvalidatePopularTags(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "tags:popular:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// RevokeToken marks a token id as revoked until its natural expiry.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether jti was revoked. Without Redis nothing is revoked.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, RevokedTokenKey(jti)).Result()
	return err == nil && n > 0
}
