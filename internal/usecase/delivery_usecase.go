package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"cupcake/internal/domain/delivery"
	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

// CEP検索と配送可否（画面の事前チェック用。注文時はOrderUsecaseで再判定する）
type DeliveryUsecase struct {
	resolver repo.AddressResolver
	checker  *delivery.Checker
	logger   *slog.Logger
}

func NewDeliveryUsecase(resolver repo.AddressResolver, checker *delivery.Checker, logger *slog.Logger) *DeliveryUsecase {
	if checker == nil {
		checker = delivery.NewChecker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryUsecase{resolver: resolver, checker: checker, logger: logger}
}

type DeliveryCheckOutput struct {
	Available bool   `json:"available"`
	City      string `json:"city"`
	State     string `json:"state"`
	CEP       string `json:"cep"`
}

func (u *DeliveryUsecase) LookupCEP(ctx context.Context, raw string) (model.ResolvedAddress, error) {
	cep, ok := delivery.CleanPostalCode(raw)
	if !ok {
		return model.ResolvedAddress{}, newKindError(http.StatusBadRequest, KindInvalidPostalCode, "cep must have 8 digits")
	}

	addr, err := u.resolver.Resolve(ctx, cep)
	if errors.Is(err, repo.ErrPostalCodeNotFound) {
		return model.ResolvedAddress{}, NewHTTPError(http.StatusNotFound, "CEP not found")
	}
	if err != nil {
		u.logger.ErrorContext(ctx, "cep lookup failed", "cep", cep, "error", err)
		return model.ResolvedAddress{}, NewHTTPError(http.StatusInternalServerError, "could not look up CEP")
	}
	return addr, nil
}

func (u *DeliveryUsecase) CheckDelivery(ctx context.Context, raw string) (DeliveryCheckOutput, error) {
	addr, err := u.LookupCEP(ctx, raw)
	if err != nil {
		return DeliveryCheckOutput{}, err
	}
	return DeliveryCheckOutput{
		Available: u.checker.IsEligible(addr.City, addr.State),
		City:      addr.City,
		State:     addr.State,
		CEP:       addr.CEP,
	}, nil
}
