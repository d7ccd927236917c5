// Package ratelimit agent 接口限流, 配置 redis 时多副本共享计数, 否则进程内限流
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"onprem-cd/internal/pkg/config"
)

// Limiter 按 key 限流
type Limiter interface {
	Allow(ctx context.Context, key string) bool
	Close() error
}

// New 按配置创建限流器, redis 不可用时退回进程内限流
func New(cfg *config.RateLimitConfig, log *zap.Logger) Limiter {
	if cfg.RedisAddr != "" {
		l, err := NewRedisLimiter(cfg.RedisAddr, cfg.RedisDB, cfg.Limit, cfg.Window, log)
		if err == nil {
			return l
		}
		log.Warn("redis 限流不可用, 使用进程内限流", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return NewMemoryLimiter(cfg.Limit, cfg.Window)
}

// RedisLimiter 固定窗口计数 INCR + EXPIRE
type RedisLimiter struct {
	client  *redis.Client
	log     *zap.Logger
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedisLimiter 连接 redis 并校验可用
func NewRedisLimiter(addr string, db, limit int, window time.Duration, log *zap.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:  client,
		log:     log,
		prefix:  "onprem-cd:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}, nil
}

// Allow redis 出错时放行
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	redisKey := l.prefix + key
	counter, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Error("redis 限流计数失败", zap.String("op", "incr"), zap.Error(err))
		return true
	}
	if counter == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Error("redis 限流计数失败", zap.String("op", "expire"), zap.Error(err))
		}
	}
	return int(counter) <= l.limit
}

// Close 关闭连接
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// MemoryLimiter 每个 key 一个令牌桶, 窗口内最多 limit 次
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryLimiter 创建进程内限流器
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	l := &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		burst:    limit,
	}
	if limit <= 0 {
		l.limit = rate.Inf
	} else {
		l.limit = rate.Every(window / time.Duration(limit))
	}
	return l
}

// Allow 消耗一个令牌
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Close 无需释放资源
func (l *MemoryLimiter) Close() error {
	return nil
}
