package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
	FeedKeyPrefix = "feed:mode:%s"
	TagKeyPrefix  = "feed:tag:%s"
)

// TagTimeline marks every mode-level candidate cache entry; write paths that
// materially change ranking inputs invalidate it instead of waiting out the TTL.
const TagTimeline = "timeline"

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	// FeedTTL and TrendingTTL are the default candidate-cache lifetimes;
	// config can override them when the feed cache is constructed.
	FeedTTL     = 60 * time.Second
	TrendingTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedKey(mode string) string {
	return fmt.Sprintf(FeedKeyPrefix, mode)
}

func TagKey(tag string) string {
	return fmt.Sprintf(TagKeyPrefix, tag)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// Tag records key under the given invalidation tag. The tag set outlives the
// tagged entries slightly (2x the longest feed TTL) so stale members are
// cheap no-op deletes.
func Tag(ctx context.Context, tag, key string) {
	if client == nil {
		return
	}
	tagKey := TagKey(tag)
	client.SAdd(ctx, tagKey, key)
	client.Expire(ctx, tagKey, 2*FeedTTL)
}

// InvalidateTag deletes every key recorded under the tag, then the tag set itself.
func InvalidateTag(ctx context.Context, tag string) {
	if client == nil {
		return
	}
	tagKey := TagKey(tag)
	members, err := client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return
	}
	if len(members) > 0 {
		client.Del(ctx, members...)
	}
	client.Del(ctx, tagKey)
}
