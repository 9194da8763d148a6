package repository

import (
	"context"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"gorm.io/gorm"
)

type StatsGormRepository struct {
	db *gorm.DB
}

func NewStatsGormRepository(db *gorm.DB) *StatsGormRepository {
	return &StatsGormRepository{db: db}
}

// 件数と売上合計。ステータスでの絞り込みはしない
func (r *StatsGormRepository) AdminStats(ctx context.Context) (repo.AdminStats, error) {
	var s repo.AdminStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).Count(&s.TotalOrders).Error; err != nil {
		return repo.AdminStats{}, err
	}

	if err := db.Model(&model.Order{}).Select("COALESCE(SUM(total), 0)").Row().Scan(&s.TotalRevenue); err != nil {
		return repo.AdminStats{}, err
	}

	if err := db.Model(&model.Product{}).Count(&s.TotalProducts).Error; err != nil {
		return repo.AdminStats{}, err
	}
	if err := db.Model(&model.User{}).Count(&s.TotalUsers).Error; err != nil {
		return repo.AdminStats{}, err
	}
	return s, nil
}
