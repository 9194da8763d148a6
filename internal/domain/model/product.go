package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品（価格の正はここだけ）
type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"column:image_url;type:varchar(512);not null" json:"imageUrl"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"categoryId"`
	IsAvailable bool            `gorm:"not null" json:"isAvailable"`
	IsFeatured  bool            `gorm:"not null;default:false" json:"isFeatured"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
}

type Category struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
