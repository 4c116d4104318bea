package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/gateway"
	"vod-packager/pkg/kafka"
)

// outcomeEvent 发往事件总线的终态消息体
type outcomeEvent struct {
	ResourceID    string            `json:"resource_id"`
	State         string            `json:"state"`
	Progress      int               `json:"progress"`
	Manifest      string            `json:"manifest,omitempty"`
	Qualities     map[string]string `json:"qualities,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	EndedAt       time.Time         `json:"ended_at"`
}

// KafkaReporter 把任务终态发布到Kafka，供元数据服务等外围系统消费。
type KafkaReporter struct {
	client *kafka.Client
	topic  string
}

// NewKafkaReporter 创建Kafka结果上报器
func NewKafkaReporter(client *kafka.Client, topic string) gateway.OutcomeReporter {
	return &KafkaReporter{client: client, topic: topic}
}

// ReportOutcome 发送终态事件，key为资源ID以保证同资源事件有序。
func (r *KafkaReporter) ReportOutcome(ctx context.Context, job entity.Job) error {
	if r.client == nil {
		return nil
	}

	event := outcomeEvent{
		ResourceID:    job.ResourceID,
		State:         job.State.String(),
		Progress:      job.Progress,
		FailureReason: job.FailureReason,
		StartedAt:     job.StartedAt,
		EndedAt:       job.EndedAt,
	}
	if job.Result != nil {
		event.Manifest = job.Result.Manifest
		event.Qualities = job.Result.Qualities
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}
	return r.client.Produce(ctx, r.topic, []byte(job.ResourceID), payload)
}
