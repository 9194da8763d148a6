package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// 管理画面の集計（件数と売上の合計だけ）
type AdminStats struct {
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalProducts int64           `json:"totalProducts"`
	TotalUsers    int64           `json:"totalUsers"`
}

type StatsRepository interface {
	AdminStats(ctx context.Context) (AdminStats, error)
}
