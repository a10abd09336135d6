package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yukikurage/group-task-api/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	revokedMarkerPrefix   = "refresh_token_revoked:"
	userTokensKeyPrefix   = "user_tokens:"
)

// RefreshToken is the cached state of one issued refresh token. Only the
// hash of the token is ever stored.
type RefreshToken struct {
	UserID      uint64     `json:"user_id"`
	TokenHash   string     `json:"token_hash"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedByIP string     `json:"created_by_ip"`
	Revoked     bool       `json:"revoked"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy  string     `json:"replaced_by,omitempty"`
}

// IsExpired reports whether the token expired at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStore keeps refresh-token state in the cache. A record lives until its
// own expiry, so a revoked token is still recognised as revoked.
type TokenStore struct {
	cache cache.Cache
	now   func() time.Time
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(c cache.Cache) *TokenStore {
	return &TokenStore{cache: c, now: time.Now}
}

func refreshTokenKey(hash string) string {
	return refreshTokenKeyPrefix + hash
}

func revokedMarkerKey(hash string) string {
	return revokedMarkerPrefix + hash
}

func userTokensKey(userID uint64) string {
	return userTokensKeyPrefix + strconv.FormatUint(userID, 10)
}

func (s *TokenStore) remaining(t *RefreshToken) time.Duration {
	ttl := t.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func (s *TokenStore) write(ctx context.Context, t *RefreshToken) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode refresh token: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKey(t.TokenHash), string(payload), s.remaining(t))
}

// Save stores a new token and tracks it in the owner's token set.
func (s *TokenStore) Save(ctx context.Context, t *RefreshToken) error {
	if err := s.write(ctx, t); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	setKey := userTokensKey(t.UserID)
	if err := s.cache.SAdd(ctx, setKey, t.TokenHash); err != nil {
		return fmt.Errorf("track refresh token: %w", err)
	}
	// The set outlives every member it tracks.
	if err := s.cache.Expire(ctx, setKey, s.remaining(t)); err != nil {
		return fmt.Errorf("expire token set: %w", err)
	}
	return nil
}

// Find returns the token state for hash, or cache.ErrNotFound.
func (s *TokenStore) Find(ctx context.Context, hash string) (*RefreshToken, error) {
	payload, err := s.cache.Get(ctx, refreshTokenKey(hash))
	if err != nil {
		return nil, err
	}

	var t RefreshToken
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("decode refresh token: %w", err)
	}

	if !t.Revoked {
		// A revocation may have claimed the marker without rewriting the record yet.
		marked, err := s.cache.Exists(ctx, revokedMarkerKey(hash))
		if err != nil {
			return nil, fmt.Errorf("check revocation marker: %w", err)
		}
		t.Revoked = marked
	}
	return &t, nil
}

// Revoke marks the token revoked. It reports false when another caller
// revoked it first; exactly one concurrent caller wins.
func (s *TokenStore) Revoke(ctx context.Context, t *RefreshToken, replacedBy string) (bool, error) {
	claimed, err := s.cache.SetNX(ctx, revokedMarkerKey(t.TokenHash), "1", s.remaining(t))
	if err != nil {
		return false, fmt.Errorf("claim revocation: %w", err)
	}
	if !claimed {
		return false, nil
	}

	now := s.now()
	t.Revoked = true
	t.RevokedAt = &now
	t.ReplacedBy = replacedBy
	if err := s.write(ctx, t); err != nil {
		return true, fmt.Errorf("store revoked token: %w", err)
	}

	if err := s.cache.SRem(ctx, userTokensKey(t.UserID), t.TokenHash); err != nil {
		return true, fmt.Errorf("untrack refresh token: %w", err)
	}
	return true, nil
}

// RevokeAllForUser revokes every live token in the user's token set and
// returns how many it revoked.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID uint64) (int, error) {
	setKey := userTokensKey(userID)
	hashes, err := s.cache.SMembers(ctx, setKey)
	if err != nil {
		return 0, fmt.Errorf("list user tokens: %w", err)
	}

	revoked := 0
	for _, hash := range hashes {
		t, err := s.Find(ctx, hash)
		if errors.Is(err, cache.ErrNotFound) {
			continue
		}
		if err != nil {
			return revoked, err
		}
		if t.Revoked {
			continue
		}

		claimed, err := s.Revoke(ctx, t, "")
		if err != nil {
			return revoked, err
		}
		if claimed {
			revoked++
		}
	}

	if err := s.cache.Delete(ctx, setKey); err != nil {
		return revoked, fmt.Errorf("clear user tokens: %w", err)
	}
	return revoked, nil
}
