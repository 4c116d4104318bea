package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/gateway"
)

// PackageOutcomePO 打包结果历史表。核心本身只持有内存记录，
// 持久化历史由该表承担，供外围系统查询。
type PackageOutcomePO struct {
	ID            uint      `gorm:"primaryKey"`
	ResourceID    string    `gorm:"size:128;index"`
	State         string    `gorm:"size:32"`
	Progress      int       `gorm:"not null"`
	ManifestKey   string    `gorm:"size:512"`
	Qualities     string    `gorm:"type:text"` // JSON: 档位名 -> playlist对象键
	FailureReason string    `gorm:"size:1024"`
	StartedAt     time.Time `gorm:""`
	EndedAt       time.Time `gorm:""`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (PackageOutcomePO) TableName() string {
	return "package_outcomes"
}

// OutcomeRepo 用MySQL记录终态历史，实现gateway.OutcomeReporter。
type OutcomeRepo struct {
	db *gorm.DB
}

// NewOutcomeRepo 创建结果仓储并迁移表结构
func NewOutcomeRepo(db *gorm.DB) (*OutcomeRepo, error) {
	if err := db.AutoMigrate(&PackageOutcomePO{}); err != nil {
		return nil, fmt.Errorf("migrate package_outcomes: %w", err)
	}
	return &OutcomeRepo{db: db}, nil
}

// ReportOutcome 插入一条终态历史
func (r *OutcomeRepo) ReportOutcome(ctx context.Context, job entity.Job) error {
	po := PackageOutcomePO{
		ResourceID:    job.ResourceID,
		State:         job.State.String(),
		Progress:      job.Progress,
		FailureReason: job.FailureReason,
		StartedAt:     job.StartedAt,
		EndedAt:       job.EndedAt,
	}
	if job.Result != nil {
		po.ManifestKey = job.Result.Manifest
		if data, err := json.Marshal(job.Result.Qualities); err == nil {
			po.Qualities = string(data)
		}
	}
	if err := r.db.WithContext(ctx).Create(&po).Error; err != nil {
		return fmt.Errorf("insert package outcome: %w", err)
	}
	return nil
}

// ListByResource 查询某资源的历史记录，按时间倒序。
func (r *OutcomeRepo) ListByResource(ctx context.Context, resourceID string, limit int) ([]PackageOutcomePO, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []PackageOutcomePO
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query package outcomes: %w", err)
	}
	return out, nil
}

var _ gateway.OutcomeReporter = (*OutcomeRepo)(nil)
