// Package cep はCEP(ブラジルの郵便番号)から住所を引く。
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

// 通信エラー・上流の異常（CEPが存在しないのとは別）
var ErrUnavailable = errors.New("address service unavailable")

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	// true または "true" が返る
	Erro any `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

type ViaCEPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[model.ResolvedAddress]
	sf      singleflight.Group
}

func NewViaCEPClient(baseURL string, timeout time.Duration) *ViaCEPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[model.ResolvedAddress](gobreaker.Settings{
		Name:        "viacep",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// 存在しないCEPと呼び出し側のキャンセルは上流の障害ではない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repo.ErrPostalCodeNotFound) || errors.Is(err, context.Canceled)
		},
	})

	return &ViaCEPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: cb,
	}
}

// Resolve はCEP(数字8桁)を住所にする。
// 存在しない -> repo.ErrPostalCodeNotFound、通信・上流エラー -> ErrUnavailable
func (c *ViaCEPClient) Resolve(ctx context.Context, cep string) (model.ResolvedAddress, error) {
	if err := ctx.Err(); err != nil {
		return model.ResolvedAddress{}, err
	}

	// 同じCEPの同時問い合わせは1本にまとめる。
	// 共有の問い合わせは最初の呼び出し元のキャンセルに引きずられないようにする
	ch := c.sf.DoChan(cep, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.cb.Execute(func() (model.ResolvedAddress, error) {
			return c.fetch(fetchCtx, cep)
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return model.ResolvedAddress{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		if errors.Is(res.Err, gobreaker.ErrOpenState) || errors.Is(res.Err, gobreaker.ErrTooManyRequests) {
			return model.ResolvedAddress{}, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
		}
		return model.ResolvedAddress{}, res.Err
	}
	return res.Val.(model.ResolvedAddress), nil
}

func (c *ViaCEPClient) fetch(ctx context.Context, cep string) (model.ResolvedAddress, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ResolvedAddress{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ResolvedAddress{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// ViaCEPは形式不正のCEPに400を返す
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return model.ResolvedAddress{}, repo.ErrPostalCodeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return model.ResolvedAddress{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.ResolvedAddress{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if body.notFound() {
		return model.ResolvedAddress{}, repo.ErrPostalCodeNotFound
	}

	return model.ResolvedAddress{
		CEP:          cep,
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
		Complement:   body.Complemento,
	}, nil
}
