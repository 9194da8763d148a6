package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す（デフォルトが先頭）
	ListByUserID(ctx context.Context, userID string) ([]model.Address, error)

	//本人の住所を1件取得。他人のものはErrNotFound
	FindByUserAndID(ctx context.Context, userID, addressID string) (model.Address, error)

	Update(ctx context.Context, address model.Address) error
	Delete(ctx context.Context, userID, addressID string) error

	//ユーザーの住所のデフォルトフラグを全部落とす
	ClearDefault(ctx context.Context, userID string) error
	//1件だけデフォルトにする
	MarkDefault(ctx context.Context, userID, addressID string) error
}
