package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix         = "user:%d"
	MangaKeyPrefix        = "manga:%d"
	CommentStatsPrefix    = "manga:%d:comment_stats"
	UnreadCountPrefix     = "user:%d:unread"
	SuspensionStatePrefix = "user:%d:suspensions"
)

const (
	UserTTL         = 5 * time.Minute
	MangaTTL        = 30 * time.Minute
	CommentStatsTTL = 2 * time.Minute
	UnreadCountTTL  = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func MangaKey(mangaID uint) string {
	return fmt.Sprintf(MangaKeyPrefix, mangaID)
}

func CommentStatsKey(mangaID uint) string {
	return fmt.Sprintf(CommentStatsPrefix, mangaID)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountPrefix, userID)
}

func SuspensionStateKey(userID uint) string {
	return fmt.Sprintf(SuspensionStatePrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, SuspensionStateKey(userID))
}

func InvalidateManga(ctx context.Context, mangaID uint) {
	Invalidate(ctx, MangaKey(mangaID))
	Invalidate(ctx, CommentStatsKey(mangaID))
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadCountKey(userID))
}

// Aside implements the cache-aside pattern: try the cache first, otherwise run
// the loader and populate the cache with its result. dest must be populated by
// the loader on a miss. A nil or unreachable Redis degrades to loader-only.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() error) error {
	if client != nil {
		raw, err := client.Get(ctx, key).Result()
		if err == nil {
			if unmarshalErr := json.Unmarshal([]byte(raw), dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry: drop it and fall through to the loader.
			client.Del(ctx, key)
		} else if err != redis.Nil {
			// Redis trouble is non-fatal; the loader is authoritative.
		}
	}

	if err := loader(); err != nil {
		return err
	}

	if client != nil {
		if raw, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}
