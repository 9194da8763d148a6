package model

import "time"

// 配送先住所（アドレス帳）
type Address struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"not null;index" json:"userId"`

	//宛名（"自宅"など）
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//CEP。数字8桁で保存する
	CEP string `gorm:"column:cep;type:varchar(8);not null" json:"cep"`

	Street       string `gorm:"type:varchar(255);not null" json:"street"`
	Number       string `gorm:"type:varchar(20);not null" json:"number"`
	Complement   string `gorm:"type:varchar(255)" json:"complement"`
	Neighborhood string `gorm:"type:varchar(255);not null" json:"neighborhood"`
	City         string `gorm:"type:varchar(255);not null" json:"city"`

	//州(UF)
	State string `gorm:"type:varchar(2);not null" json:"state"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"isDefault"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// CEP解決の結果
type ResolvedAddress struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement"`
}
