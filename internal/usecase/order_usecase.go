package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cupcake/internal/domain/delivery"
	"cupcake/internal/domain/model"
	"cupcake/internal/domain/pricing"
	repo "cupcake/internal/repository"
)

const defaultIdempotencyWindow = 24 * time.Hour

// 同じidempotency keyの注文が同時に入ったとき、Txの外で読み直すための印
var errIdempotentReplay = errors.New("idempotency key already used")

type OrderOptions struct {
	// 同じキーで同じ注文を返す期間
	IdempotencyWindow time.Duration
	// カート削除の再試行
	CartClearAttempts int
	CartClearBackoff  time.Duration
}

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
	coupons    repo.CouponRepository
	carts      repo.CartRepository
	resolver   repo.AddressResolver
	checker    *delivery.Checker
	clock      Clock
	logger     *slog.Logger
	opts       OrderOptions
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	products repo.ProductRepository,
	coupons repo.CouponRepository,
	carts repo.CartRepository,
	resolver repo.AddressResolver,
	checker *delivery.Checker,
	clock Clock,
	logger *slog.Logger,
	opts OrderOptions,
) *OrderUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if checker == nil {
		checker = delivery.NewChecker()
	}
	if opts.IdempotencyWindow <= 0 {
		opts.IdempotencyWindow = defaultIdempotencyWindow
	}
	if opts.CartClearAttempts <= 0 {
		opts.CartClearAttempts = 3
	}
	if opts.CartClearBackoff < 0 {
		opts.CartClearBackoff = 0
	}
	return &OrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		products:   products,
		coupons:    coupons,
		carts:      carts,
		resolver:   resolver,
		checker:    checker,
		clock:      clock,
		logger:     logger,
		opts:       opts,
	}
}

type PlaceOrderItem struct {
	ProductID string
	Quantity  int64
}

type PlaceOrderInput struct {
	DeliveryAddress string
	Items           []PlaceOrderItem
	CouponCode      string
	PaymentMethod   string
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

type OrderOutput struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	Status            string            `json:"status"`
	Total             string            `json:"total"`
	DeliveryAddress   string            `json:"deliveryAddress"`
	PaymentMethod     string            `json:"paymentMethod"`
	AppliedCouponCode *string           `json:"appliedCouponCode"`
	DiscountAmount    string            `json:"discountAmount"`
	CreatedAt         time.Time         `json:"createdAt"`
	Items             []OrderItemOutput `json:"orderItems"`
}

// PlaceOrder はカートの内容を注文にする。
// 入力チェック・CEP・配送エリア・商品の確認はTxの外で先に済ませ、
// クーポンのロック・価格計算・注文作成・利用回数の加算は1つのTxで行う。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//明細の正規化（同じ商品はまとめる）
	lines, herr := dedupeItems(in.Items)
	if herr != nil {
		return OrderOutput{}, herr
	}

	method, ok := model.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paymentMethod")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}
	if key != "" {
		// 同じキーなら同じ結果
		if out, found, err := u.replay(ctx, userID, key); found || err != nil {
			return out, err
		}
	}

	//CEP抽出
	cep, ok := delivery.ExtractPostalCode(in.DeliveryAddress)
	if !ok {
		return OrderOutput{}, newKindError(http.StatusBadRequest, KindMissingPostalCode,
			"delivery address must include a valid CEP (e.g. 58000-000)")
	}

	//住所解決
	addr, err := u.resolver.Resolve(ctx, cep)
	if errors.Is(err, repo.ErrPostalCodeNotFound) {
		return OrderOutput{}, newKindError(http.StatusBadRequest, KindInvalidPostalCode, "CEP not found").
			withDetails("cep", cep)
	}
	if err != nil {
		u.logger.ErrorContext(ctx, "address resolution failed", "cep", cep, "error", err)
		return OrderOutput{}, newKindError(http.StatusBadGateway, KindAddressResolutionFailed,
			"could not verify the delivery address, please try again")
	}

	//配送エリア（価格計算・クーポンより前）
	if !u.checker.IsEligible(addr.City, addr.State) {
		return OrderOutput{}, newKindError(http.StatusBadRequest, KindDeliveryUnavailable,
			fmt.Sprintf("delivery is not available for %s/%s", addr.City, addr.State)).
			withDetails("city", addr.City, "state", addr.State)
	}

	//価格はカタログから（クライアントの値は使わない）
	catalog, err := u.loadCatalog(ctx, lines)
	if err != nil {
		return OrderOutput{}, err
	}

	code := model.NormalizeCouponCode(in.CouponCode)
	if code != "" {
		// ロック前に一度見ておく（無効なら早く返す）
		if _, err := lookupCoupon(ctx, u.coupons.FindByCode, code, u.clock.Now()); err != nil {
			return OrderOutput{}, u.mapCouponErr(ctx, err)
		}
	}

	var created model.Order
	var createdItems []model.OrderItem

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		pct := 0
		var coupon *model.Coupon
		if code != "" {
			//行ロックしてから再検証
			c, err := lookupCoupon(ctx, r.Coupons().FindByCodeForUpdate, code, u.clock.Now())
			if err != nil {
				return err
			}
			pct = c.DiscountPercentage
			coupon = &c
		}

		totals, err := pricing.Compute(lines, catalog, pct)
		if err != nil {
			return err
		}

		order := model.Order{
			UserID:          userID,
			Status:          method.InitialStatus(),
			Total:           pricing.FromCents(totals.TotalCents),
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			PaymentMethod:   method,
			DiscountAmount:  pricing.FromCents(totals.DiscountCents),
		}
		if coupon != nil {
			applied := coupon.Code
			order.AppliedCouponCode = &applied
		}
		if key != "" {
			order.IdempotencyKey = &key
		}

		o, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrConflict) && key != "" {
			return errIdempotentReplay
		}
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]model.OrderItem, 0, len(totals.Lines))
		for _, lt := range totals.Lines {
			items = append(items, model.OrderItem{
				ProductID: lt.ProductID,
				Quantity:  lt.Quantity,
				Price:     pricing.FromCents(lt.UnitPriceCents),
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, o.ID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		if coupon != nil {
			// 上限に達していたら全体をrollback
			err := r.Coupons().IncrementUsage(ctx, coupon.ID)
			if errors.Is(err, repo.ErrConflict) {
				return model.ErrCouponExhausted
			}
			if err != nil {
				return fmt.Errorf("increment coupon usage: %w", err)
			}
		}

		created = o
		createdItems = items
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errIdempotentReplay):
		//Txはabort済みなので外で読み直す
		out, found, rerr := u.replay(ctx, userID, key)
		if rerr != nil {
			return OrderOutput{}, rerr
		}
		if !found {
			return OrderOutput{}, newKindError(http.StatusConflict, KindIdempotencyConflict, "idempotency conflict")
		}
		return out, nil
	case model.IsCouponError(err):
		return OrderOutput{}, invalidCouponError(err)
	case errors.Is(err, pricing.ErrAmountTooLarge), errors.Is(err, pricing.ErrInvalidQuantity):
		return OrderOutput{}, newKindError(http.StatusBadRequest, KindInvalidItem, "order total is too large")
	case errors.Is(err, pricing.ErrProductNotFound), errors.Is(err, pricing.ErrProductUnavailable):
		u.logger.ErrorContext(ctx, "catalog changed during checkout", "user_id", userID, "error", err)
		return OrderOutput{}, itemsUnavailableError()
	default:
		u.logger.ErrorContext(ctx, "order transaction failed", "user_id", userID, "error", err)
		return OrderOutput{}, newKindError(http.StatusInternalServerError, KindInternal,
			"could not create the order, please try again")
	}

	//コミット後。失敗しても注文は取り消さない
	u.clearCart(ctx, userID)

	return toOrderOutput(created, createdItems), nil
}

func (u *OrderUsecase) mapCouponErr(ctx context.Context, err error) error {
	if model.IsCouponError(err) {
		return invalidCouponError(err)
	}
	u.logger.ErrorContext(ctx, "coupon lookup failed", "error", err)
	return errDB()
}

func dedupeItems(items []PlaceOrderItem) ([]pricing.Line, error) {
	if len(items) == 0 {
		return nil, newKindError(http.StatusBadRequest, KindInvalidItem, "at least one item is required")
	}
	idx := make(map[string]int, len(items))
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" {
			return nil, newKindError(http.StatusBadRequest, KindInvalidItem, "productId is required")
		}
		if it.Quantity <= 0 {
			return nil, newKindError(http.StatusBadRequest, KindInvalidItem, "quantity must be a positive integer").
				withDetails("productId", pid)
		}
		if it.Quantity > pricing.MaxItemQuantity {
			return nil, quantityTooLargeError(pid)
		}
		if i, ok := idx[pid]; ok {
			// どちらも上限以下なので足してもあふれない
			lines[i].Quantity += it.Quantity
			if lines[i].Quantity > pricing.MaxItemQuantity {
				return nil, quantityTooLargeError(pid)
			}
			continue
		}
		idx[pid] = len(lines)
		lines = append(lines, pricing.Line{ProductID: pid, Quantity: it.Quantity})
	}
	return lines, nil
}

func quantityTooLargeError(productID string) error {
	return newKindError(http.StatusBadRequest, KindInvalidItem,
		fmt.Sprintf("quantity must be at most %d", pricing.MaxItemQuantity)).
		withDetails("productId", productID)
}

// 一括取得して、欠け・販売停止があれば詳細はログにだけ残す
func (u *OrderUsecase) loadCatalog(ctx context.Context, lines []pricing.Line) (map[string]pricing.CatalogEntry, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		u.logger.ErrorContext(ctx, "product lookup failed", "error", err)
		return nil, errDB()
	}

	catalog := make(map[string]pricing.CatalogEntry, len(products))
	for _, p := range products {
		catalog[p.ID] = pricing.CatalogEntry{
			PriceCents: pricing.ToCents(p.Price),
			Available:  p.IsAvailable,
		}
	}

	if len(products) < len(ids) {
		var missing []string
		for _, id := range ids {
			if _, ok := catalog[id]; !ok {
				missing = append(missing, id)
			}
		}
		u.logger.WarnContext(ctx, "checkout references unknown products", "product_ids", missing)
		return nil, itemsUnavailableError()
	}
	for _, id := range ids {
		if !catalog[id].Available {
			u.logger.WarnContext(ctx, "checkout references unavailable product", "product_id", id)
			return nil, itemsUnavailableError()
		}
	}
	return catalog, nil
}

func itemsUnavailableError() error {
	return newKindError(http.StatusInternalServerError, KindItemsUnavailable, "some items are unavailable")
}

// 既存注文を返す。期間外なら409
func (u *OrderUsecase) replay(ctx context.Context, userID, key string) (OrderOutput, bool, error) {
	existing, found, err := u.orders.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return OrderOutput{}, false, errDB()
	}
	if !found {
		return OrderOutput{}, false, nil
	}
	if u.clock.Now().Sub(existing.CreatedAt) > u.opts.IdempotencyWindow {
		return OrderOutput{}, true, newKindError(http.StatusConflict, KindIdempotencyConflict,
			"idempotency key was already used")
	}
	items, err := u.orderItems.ListByOrderID(ctx, existing.ID)
	if err != nil {
		return OrderOutput{}, true, errDB()
	}
	return toOrderOutput(existing, items), true, nil
}

// カートを空にする。リクエストがキャンセルされても続ける
func (u *OrderUsecase) clearCart(ctx context.Context, userID string) {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= u.opts.CartClearAttempts; attempt++ {
		if err = u.carts.ClearByUserID(ctx, userID); err == nil {
			return
		}
		if attempt < u.opts.CartClearAttempts && u.opts.CartClearBackoff > 0 {
			time.Sleep(u.opts.CartClearBackoff * time.Duration(attempt))
		}
	}
	u.logger.ErrorContext(ctx, "failed to clear cart after order", "user_id", userID,
		"attempts", u.opts.CartClearAttempts, "error", err)
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	if userID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, errDB()
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemsByOrder, err := u.orderItems.ListByOrderIDs(ctx, ids)
	if err != nil {
		return []OrderOutput{}, errDB()
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, itemsByOrder[o.ID]))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	o, err := u.findOwnOrder(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	return toOrderOutput(o, items), nil
}

// 利用者のキャンセル。pending/confirmedのときだけ
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	o, err := u.findOwnOrder(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if !o.Status.CanUserCancel() {
		return OrderOutput{}, cannotCancelError()
	}

	// 読んでから更新までの間に進んだ場合も弾く
	ok, err := u.orders.UpdateStatusFrom(ctx, o.ID, model.OrderStatusCancelled,
		model.OrderStatusPending, model.OrderStatusConfirmed)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	if !ok {
		return OrderOutput{}, cannotCancelError()
	}

	o.Status = model.OrderStatusCancelled
	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, errDB()
	}
	return toOrderOutput(o, items), nil
}

func cannotCancelError() error {
	return newKindError(http.StatusBadRequest, KindCannotCancel, "this order can no longer be cancelled")
}

func (u *OrderUsecase) findOwnOrder(ctx context.Context, userID, orderID string) (model.Order, error) {
	if userID == "" {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, errDB()
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return o, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}

	return OrderOutput{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            string(o.Status),
		Total:             o.Total.StringFixed(2),
		DeliveryAddress:   o.DeliveryAddress,
		PaymentMethod:     string(o.PaymentMethod),
		AppliedCouponCode: o.AppliedCouponCode,
		DiscountAmount:    o.DiscountAmount.StringFixed(2),
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}
