package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

// カート明細と商品
type CartLine struct {
	model.CartItem
	Product model.Product `json:"product"`
}

type CartRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]CartLine, error)
	// 同一商品は数量を加算
	Upsert(ctx context.Context, userID, productID string, addQty int64) (model.CartItem, error)
	// 本人の明細だけ更新。なければErrNotFound
	UpdateQuantity(ctx context.Context, userID, itemID string, qty int64) (model.CartItem, error)
	DeleteByID(ctx context.Context, userID, itemID string) error
	ClearByUserID(ctx context.Context, userID string) error
}
