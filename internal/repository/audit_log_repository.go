package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

// 対象リソースごとの履歴を引く条件
type AuditLogFilter struct {
	ResourceType model.AuditResourceType
	ResourceID   string
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
