package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var NilError = goredis.Nil

type Options = goredis.UniversalOptions

type RedisAdapter interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	// DelIfEquals deletes key only while it still holds value.
	DelIfEquals(ctx context.Context, key string, value []byte) (bool, error)
	HGet(ctx context.Context, key string, field string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, field string, value interface{}) error
	HDel(ctx context.Context, key string, fields ...string) error
	TxPipelined(ctx context.Context, fn func(goredis.Pipeliner) error) ([]goredis.Cmder, error)
	Key(key string) string
	Close() error
}

type redisAdapter struct {
	prefix   string
	Conn     goredis.UniversalClient
	ConnName string
}

var redisLock = &sync.RWMutex{}
var redisInstance map[string]RedisAdapter

var delIfEquals = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisAdapter registers a connection under connName and fails if the
// server does not answer a ping.
func NewRedisAdapter(connName string, keysPrefix string, opts *goredis.UniversalOptions) (RedisAdapter, error) {
	return newRedisAdapter(connName, keysPrefix, opts, true)
}

// OpenRedisAdapter registers a connection without contacting the server;
// the first command dials. Used by processes that must start offline.
func OpenRedisAdapter(connName string, keysPrefix string, opts *goredis.UniversalOptions) RedisAdapter {
	adapter, _ := newRedisAdapter(connName, keysPrefix, opts, false)
	return adapter
}

func newRedisAdapter(connName string, keysPrefix string, opts *goredis.UniversalOptions, verify bool) (RedisAdapter, error) {
	redisLock.RLock()
	if redisInstance != nil {
		if adapter, ok := redisInstance[connName]; ok {
			redisLock.RUnlock()
			return adapter, nil
		}
	}
	redisLock.RUnlock()

	redisLock.Lock()
	if redisInstance == nil {
		redisInstance = make(map[string]RedisAdapter)
	}
	if adapter, ok := redisInstance[connName]; ok {
		redisLock.Unlock()
		return adapter, nil
	}
	redisLock.Unlock()

	c := goredis.NewUniversalClient(opts)
	if verify {
		if err := c.Ping(context.Background()).Err(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	adapter := &redisAdapter{
		Conn:     c,
		prefix:   keysPrefix,
		ConnName: connName,
	}

	redisLock.Lock()
	redisInstance[connName] = adapter
	redisLock.Unlock()

	return adapter, nil
}

func (r *redisAdapter) Ping(ctx context.Context) error {
	return r.Conn.Ping(ctx).Err()
}

func (r *redisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Conn.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *redisAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	cmd := r.Conn.SetNX(ctx, r.prefix+key, value, ttl)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	return cmd.Val(), nil
}

func (r *redisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	st := r.Conn.Get(ctx, r.prefix+key)
	if err := st.Err(); err != nil {
		return nil, err
	}
	return st.Bytes()
}

func (r *redisAdapter) Del(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.prefix + k
	}
	return r.Conn.Del(ctx, prefixed...).Err()
}

func (r *redisAdapter) DelIfEquals(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := delIfEquals.Run(ctx, r.Conn, []string{r.prefix + key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *redisAdapter) HGet(ctx context.Context, key string, field string) ([]byte, error) {
	b, err := r.Conn.HGet(ctx, r.prefix+key, field).Bytes()
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *redisAdapter) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	st := r.Conn.HGetAll(ctx, r.prefix+key)
	if st.Err() != nil {
		return nil, st.Err()
	}
	return st.Val(), nil
}

func (r *redisAdapter) HSet(ctx context.Context, key string, field string, value interface{}) error {
	return r.Conn.HSet(ctx, r.prefix+key, field, value).Err()
}

func (r *redisAdapter) HDel(ctx context.Context, key string, fields ...string) error {
	return r.Conn.HDel(ctx, r.prefix+key, fields...).Err()
}

func (r *redisAdapter) Key(key string) string {
	return r.prefix + key
}

func (r *redisAdapter) TxPipelined(ctx context.Context, fn func(goredis.Pipeliner) error) ([]goredis.Cmder, error) {
	pipelined, err := r.Conn.TxPipelined(ctx, fn)
	if err != nil {
		return nil, err
	}
	return pipelined, nil
}

// Close closes the client and forgets the registered adapter.
func (r *redisAdapter) Close() error {
	redisLock.Lock()
	if redisInstance[r.ConnName] == RedisAdapter(r) {
		delete(redisInstance, r.ConnName)
	}
	redisLock.Unlock()
	return r.Conn.Close()
}
