package repository

import (
	"context"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート明細を商品付きで返す
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID string) ([]repo.CartLine, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []repo.CartLine{}, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]repo.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, repo.CartLine{CartItem: it, Product: byID[it.ProductID]})
	}
	return lines, nil
}

// 同一商品は数量を加算（ON CONFLICTで1文にする）
func (r *CartGormRepository) Upsert(ctx context.Context, userID, productID string, addQty int64) (model.CartItem, error) {
	now := time.Now()
	item := model.CartItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  addQty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
					"updated_at": now,
				}),
			},
			clause.Returning{},
		).
		Create(&item).Error
	if err != nil {
		return model.CartItem{}, mapErr(err)
	}
	return item, nil
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, userID, itemID string, qty int64) (model.CartItem, error) {
	var item model.CartItem
	res := r.db.WithContext(ctx).
		Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now()})
	if res.Error != nil {
		return model.CartItem{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.CartItem{}, repo.ErrNotFound
	}
	return item, nil
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カートを空にする（空でもエラーにしない）
func (r *CartGormRepository) ClearByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
