package licenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keybind/internal/common"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "keybind:license:"

// Each script runs atomically on the server, which makes it the per-key
// critical section.
var (
	redisCreateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

	redisTouchScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'is_active') ~= '1' then
  return 0
end
local bound = redis.call('HGET', KEYS[1], 'bound_hwid')
if bound and bound ~= '' then
  if bound ~= ARGV[1] then
    return 0
  end
else
  redis.call('HSET', KEYS[1], 'bound_hwid', ARGV[1])
end
if not redis.call('HGET', KEYS[1], 'first_used_at') then
  redis.call('HSET', KEYS[1], 'first_used_at', ARGV[2])
end
local last = redis.call('HGET', KEYS[1], 'last_used_at')
if not last or last < ARGV[2] then
  redis.call('HSET', KEYS[1], 'last_used_at', ARGV[2])
end
return 1
`)

	redisRevokeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'is_active', '0')
return 1
`)

	redisUnbindScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local bound = redis.call('HGET', KEYS[1], 'bound_hwid')
redis.call('HDEL', KEYS[1], 'bound_hwid')
if bound then
  return bound
end
return ''
`)
)

// RedisRepository stores each license as a hash under keybind:license:<key>.
type RedisRepository struct {
	client redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

func (r *RedisRepository) Create(ctx context.Context, l *models.License) error {
	args := []any{
		"license_key", l.LicenseKey,
		"user_name", l.UserName,
		"user_email", l.UserEmail,
		"created_at", formatTime(l.CreatedAt),
		"expires_at", formatTime(l.ExpiresAt),
		"is_active", formatBool(l.IsActive),
	}
	created, err := redisCreateScript.Run(ctx, r.client, []string{redisKey(l.LicenseKey)}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis create: %w", err)
	}
	if created == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, key string) (*models.License, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}
	return licenseFromHash(fields)
}

func (r *RedisRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Touch(ctx context.Context, key, hwid string, now time.Time) error {
	ok, err := redisTouchScript.Run(ctx, r.client, []string{redisKey(key)}, hwid, formatTime(now)).Int()
	if err != nil {
		return fmt.Errorf("redis touch: %w", err)
	}
	if ok == 0 {
		return ErrConflict
	}
	return nil
}

func (r *RedisRepository) Revoke(ctx context.Context, key string) error {
	ok, err := redisRevokeScript.Run(ctx, r.client, []string{redisKey(key)}).Int()
	if err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	if ok == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *RedisRepository) Unbind(ctx context.Context, key string) (string, error) {
	previous, err := redisUnbindScript.Run(ctx, r.client, []string{redisKey(key)}).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("redis unbind: %w", err)
	}
	return previous, nil
}

func licenseFromHash(f map[string]string) (*models.License, error) {
	l := &models.License{
		LicenseKey: f["license_key"],
		UserName:   f["user_name"],
		UserEmail:  f["user_email"],
		IsActive:   f["is_active"] == "1",
	}

	var err error
	if l.CreatedAt, err = parseTime(f["created_at"]); err != nil {
		return nil, fmt.Errorf("malformed created_at: %w", err)
	}
	if l.ExpiresAt, err = parseTime(f["expires_at"]); err != nil {
		return nil, fmt.Errorf("malformed expires_at: %w", err)
	}
	if v := f["bound_hwid"]; v != "" {
		l.BoundHWID = &v
	}
	if l.FirstUsedAt, err = parseOptionalTime(f["first_used_at"]); err != nil {
		return nil, fmt.Errorf("malformed first_used_at: %w", err)
	}
	if l.LastUsedAt, err = parseOptionalTime(f["last_used_at"]); err != nil {
		return nil, fmt.Errorf("malformed last_used_at: %w", err)
	}
	return l, nil
}

// redisTimeLayout has a fixed-width fraction so stored timestamps compare
// lexically in the touch script.
const redisTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(redisTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
