package resource

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"vod-packager/pkg/assert"
	"vod-packager/pkg/config"
	"vod-packager/pkg/logger"
	"vod-packager/pkg/manager"
	"vod-packager/pkg/redisclient"
)

var (
	redisResourceOnce      sync.Once
	singletonRedisResource *RedisResource
)

// RedisResource Redis资源管理器，进度日志流落在该实例上。
type RedisResource struct {
	client *redisclient.Client
}

// DefaultRedisResource 获取Redis资源单例
func DefaultRedisResource() *RedisResource {
	assert.NotCircular()
	redisResourceOnce.Do(func() {
		singletonRedisResource = &RedisResource{}
	})
	assert.NotNil(singletonRedisResource)
	return singletonRedisResource
}

// MustOpen 初始化Redis连接
func (r *RedisResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before RedisResource")
	}

	client, err := redisclient.New(cfg.Redis)
	if err != nil {
		panic(fmt.Sprintf("failed to connect redis: %v", err))
	}
	r.client = client

	logger.Info("Redis resource initialized", map[string]interface{}{
		"addr": cfg.Redis.GetRedisAddr(),
		"db":   cfg.Redis.DB,
	})
}

// GetClient 获取go-redis客户端
func (r *RedisResource) GetClient() *redis.Client {
	if r.client == nil {
		return nil
	}
	return r.client.Raw()
}

// Close 释放资源
func (r *RedisResource) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

// RedisResourcePlugin Redis资源插件
type RedisResourcePlugin struct{}

func (p *RedisResourcePlugin) Name() string {
	return "redisResource"
}

func (p *RedisResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultRedisResource()
}
