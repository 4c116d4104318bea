package resource

import (
	"sync"

	"vod-packager/pkg/assert"
	"vod-packager/pkg/config"
	"vod-packager/pkg/kafka"
	"vod-packager/pkg/manager"
)

var (
	kafkaResourceOnce      sync.Once
	singletonKafkaResource *KafkaResource
)

// KafkaResource Kafka资源管理器
type KafkaResource struct {
	client  *kafka.Client
	enabled bool
}

// DefaultKafkaResource 获取Kafka资源单例
func DefaultKafkaResource() *KafkaResource {
	assert.NotCircular()
	kafkaResourceOnce.Do(func() {
		singletonKafkaResource = &KafkaResource{}
	})
	assert.NotNil(singletonKafkaResource)
	return singletonKafkaResource
}

// MustOpen 初始化Kafka客户端，未启用时跳过。
func (r *KafkaResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before KafkaResource")
	}
	if !cfg.Kafka.Enabled {
		return
	}
	r.client = kafka.DefaultClient()
	r.client.MustOpen()
	r.enabled = true
}

// GetClient 获取Kafka客户端，未启用时返回nil。
func (r *KafkaResource) GetClient() *kafka.Client {
	if !r.enabled {
		return nil
	}
	return r.client
}

// Close 释放资源
func (r *KafkaResource) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

// KafkaResourcePlugin Kafka资源插件
type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string {
	return "kafkaResource"
}

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultKafkaResource()
}
