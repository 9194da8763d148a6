package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

// 一覧検索（販売中のみ）
type ProductListQuery struct {
	CategoryID   string
	FeaturedOnly bool
}

// 商品は読み取り専用。
type ProductRepository interface {
	ListAvailable(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	//見つかった分だけ返す。足りないかどうかは呼び出し側で判断する
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
}
