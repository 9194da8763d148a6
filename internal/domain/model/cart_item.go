package model

import "time"

// カートの明細
// (user_id, product_id)で一意。同じ商品は数量を加算する。
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:ux_cart_items_user_product" json:"userId"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:ux_cart_items_user_product" json:"productId"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
