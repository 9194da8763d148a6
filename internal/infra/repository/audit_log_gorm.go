package repository

import (
	"context"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"gorm.io/gorm"
)

const maxAuditLogLimit = 100

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return mapErr(r.db.WithContext(ctx).Create(&log).Error)
}

// 注文のFORCE履歴などを対象IDで引く（idx_audit_logs_resource）
func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxAuditLogLimit {
		limit = maxAuditLogLimit
	}
	offset := max(f.Offset, 0)

	logs := []model.AuditLog{}
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", f.ResourceType, f.ResourceID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
