package repository

import (
	"context"
	"errors"

	"cupcake/internal/domain/model"
)

// CEPが存在しない（通信エラーとは区別する）
var ErrPostalCodeNotFound = errors.New("postal code not found")

// CEP(数字8桁)から住所を引く
type AddressResolver interface {
	Resolve(ctx context.Context, cep string) (model.ResolvedAddress, error)
}
