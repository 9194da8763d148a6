package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

type UserRepository interface {
	// IdPのクレームからユーザーを作成/更新
	Upsert(ctx context.Context, user model.User) (model.User, error)
	FindByID(ctx context.Context, userID string) (model.User, error)
	FindByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error)
}
