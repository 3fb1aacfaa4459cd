package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PaidSession is the cached verdict for a checkout session that has been
// confirmed paid and credited. Unpaid sessions are never cached; their
// status can still change.
type PaidSession struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

const sessionTTL = 24 * time.Hour

func sessionKey(sessionID string) string {
	return "purchase:session:" + sessionID
}

// PaidSession returns the cached verdict for the session, or ok=false on a
// miss. A nil Cache always misses, so callers need no nil checks beyond
// receiving the zero result.
func (c *Cache) PaidSession(ctx context.Context, sessionID string) (PaidSession, bool) {
	if c == nil || sessionID == "" {
		return PaidSession{}, false
	}
	raw, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		return PaidSession{}, false
	}
	var session PaidSession
	if err := json.Unmarshal(raw, &session); err != nil || session.UserID == "" {
		return PaidSession{}, false
	}
	return session, true
}

// MarkPaid records the paid verdict for a session. Failures are returned so
// callers can log them; the caller's response does not depend on the cache.
func (c *Cache) MarkPaid(ctx context.Context, sessionID string, session PaidSession) error {
	if c == nil || sessionID == "" {
		return nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("cache: marshal session: %w", err)
	}
	if err := c.client.Set(ctx, sessionKey(sessionID), raw, sessionTTL).Err(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("cache: store session: %w", err)
	}
	return nil
}
