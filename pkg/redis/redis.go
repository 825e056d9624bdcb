package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
)

// Client Redis 客户端封装
// 用于路线图布局缓存与导入接口限流；不可用时由调用方降级为无缓存
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 路线图缓存 ──

const roadmapPrefix = "roadmap:"

// RoadmapKey 缓存键：roadmap:<学期ID>:<日期>，"今天" 变化时自然失效
func RoadmapKey(semesterID, today string) string {
	return roadmapPrefix + semesterID + ":" + today
}

// GetRoadmap 读取缓存的布局 JSON；未命中返回 ok=false
func (c *Client) GetRoadmap(ctx context.Context, semesterID, today string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, RoadmapKey(semesterID, today)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetRoadmap 写入布局 JSON
func (c *Client) SetRoadmap(ctx context.Context, semesterID, today string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, RoadmapKey(semesterID, today), payload, ttl).Err()
}

// InvalidateRoadmap 删除某学期所有日期的布局缓存
func (c *Client) InvalidateRoadmap(ctx context.Context, semesterID string) error {
	pattern := roadmapPrefix + semesterID + ":*"
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// ── 限流 ──

const rateLimitPrefix = "ratelimit:"

// CheckRateLimit 固定窗口计数：窗口内第 limit+1 次起返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	full := rateLimitPrefix + key
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
