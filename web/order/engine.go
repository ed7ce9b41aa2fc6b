// Package order owns the payment-request lifecycle: creation with a
// collision-checked public id, the Pending → Submitted → Verified /
// Expired / Cancelled state machine, lazy expiry, and the admin gate on
// verification. All mutations go through the Store's compare-and-swap so
// a submission and a verification racing each other resolve in favor of
// the verification.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"upi-gateway/orderid"
	"upi-gateway/upi"
	"upi-gateway/web/db"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const DefaultMerchantName = "Merchant"

var utrPattern = regexp.MustCompile(`^[0-9A-Za-z]{6,32}$`)

type Config struct {
	DefaultTTL      time.Duration // order lifetime when the request does not ask for one
	IDLength        int
	MaxIDAttempts   int           // id regenerations before creation gives up
	RateLimitWindow time.Duration // UTR throttle shape, consumed by the route wiring
	RateLimitMax    int
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 5400 * time.Second
	}
	if c.IDLength < 10 {
		c.IDLength = orderid.Length
	}
	if c.MaxIDAttempts <= 0 {
		c.MaxIDAttempts = 5
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = 10 * time.Minute
	}
	if c.RateLimitMax <= 0 {
		c.RateLimitMax = 5
	}
	return c
}

type Engine struct {
	store Store
	cfg   Config

	// seams for tests
	now   func() time.Time
	newID func(length int) (string, error)
}

func New(store Store, cfg Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		newID: orderid.NewWithLength,
	}
}

func (e *Engine) Config() Config { return e.cfg }

type CreateInput struct {
	Amount       decimal.Decimal
	VPA          string
	MerchantName string
	Note         string
	ExpiresIn    time.Duration // zero means Config.DefaultTTL
}

// Create validates the request, generates a public id and persists the
// order with its deep link. On an id collision it regenerates a bounded
// number of times; two concurrent creations can never both claim the
// same id because the store's insert is insert-if-absent.
func (e *Engine) Create(ctx context.Context, in CreateInput) (db.Order, error) {
	if !in.Amount.IsPositive() {
		return db.Order{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !upi.ValidVPA(in.VPA) {
		return db.Order{}, fmt.Errorf("%w: malformed vpa", ErrInvalidInput)
	}

	name := in.MerchantName
	if name == "" {
		name = DefaultMerchantName
	}
	ttl := in.ExpiresIn
	if ttl <= 0 {
		ttl = e.cfg.DefaultTTL
	}
	amount := in.Amount.Round(2)
	now := e.now()

	for attempt := 0; attempt < e.cfg.MaxIDAttempts; attempt++ {
		id, err := e.newID(e.cfg.IDLength)
		if err != nil {
			return db.Order{}, fmt.Errorf("generate order id: %w", err)
		}

		o := db.Order{
			PublicID:     id,
			Amount:       amount,
			PayeeVPA:     in.VPA,
			MerchantName: name,
			Note:         in.Note,
			DeepLink: upi.BuildDeepLink(upi.LinkParams{
				PayeeVPA:     in.VPA,
				MerchantName: name,
				Amount:       amount,
				Note:         in.Note,
				ReferenceID:  id,
			}),
			Status:    db.StatusPending,
			ExpiresAt: now.Add(ttl),
		}

		err = e.store.Insert(ctx, &o)
		if err == nil {
			slog.Info("order created", "order_id", id, "amount", amount.StringFixed(2), "expires_at", o.ExpiresAt)
			return o, nil
		}
		if !errors.Is(err, ErrConflict) {
			return db.Order{}, err
		}
		slog.Warn("order id collision, regenerating", "order_id", id, "attempt", attempt+1)
	}

	return db.Order{}, fmt.Errorf("%w: exhausted order id attempts", ErrConflict)
}

// PublicOrder is the payer-facing projection. It never carries the raw
// VPA or the submitted UTR.
type PublicOrder struct {
	OrderID      string
	Amount       decimal.Decimal
	MerchantName string
	MaskedVPA    string
	DeepLink     string
	Status       db.OrderStatus
	ExpiresAt    time.Time
}

func (e *Engine) GetPublic(ctx context.Context, publicID string) (PublicOrder, error) {
	o, err := e.load(ctx, publicID)
	if err != nil {
		return PublicOrder{}, err
	}
	return PublicOrder{
		OrderID:      o.PublicID,
		Amount:       o.Amount,
		MerchantName: o.MerchantName,
		MaskedVPA:    upi.MaskVPA(o.PayeeVPA),
		DeepLink:     o.DeepLink,
		Status:       o.Status,
		ExpiresAt:    o.ExpiresAt,
	}, nil
}

// DeepLink returns the stored upi://pay URI, applying lazy expiry like
// every other read.
func (e *Engine) DeepLink(ctx context.Context, publicID string) (string, error) {
	o, err := e.load(ctx, publicID)
	if err != nil {
		return "", err
	}
	return o.DeepLink, nil
}

// SubmitUTR records the payer's transaction-reference claim. An expired
// order is pushed to Expired and the submission rejected; a repeat
// submission on an already-claimed order succeeds without touching the
// stored UTR; a verified order is never reverted.
func (e *Engine) SubmitUTR(ctx context.Context, publicID, utr string) error {
	if !utrPattern.MatchString(utr) {
		return fmt.Errorf("%w: malformed utr", ErrInvalidInput)
	}

	o, err := e.load(ctx, publicID)
	if err != nil {
		return err
	}

	switch o.Status {
	case db.StatusExpired:
		return ErrExpired
	case db.StatusVerified, db.StatusCancelled:
		return fmt.Errorf("%w: order is %s", ErrConflict, o.Status)
	}

	if o.UTR != "" {
		// first claim already recorded, keep it
		return nil
	}

	ok, err := e.store.Transition(ctx, publicID, Swap{
		From: []db.OrderStatus{db.StatusPending, db.StatusSubmitted},
		To:   db.StatusSubmitted,
		UTR:  utr,
	})
	if err != nil {
		return err
	}
	if !ok {
		return e.resolveSubmitRace(ctx, publicID)
	}

	slog.Info("utr submitted", "order_id", publicID)
	return nil
}

// resolveSubmitRace re-reads the row after a failed swap and maps what
// actually happened to the caller's outcome.
func (e *Engine) resolveSubmitRace(ctx context.Context, publicID string) error {
	cur, err := e.store.Get(ctx, publicID)
	if err != nil {
		return err
	}
	switch {
	case cur.Status == db.StatusVerified, cur.Status == db.StatusCancelled:
		return fmt.Errorf("%w: order is %s", ErrConflict, cur.Status)
	case cur.Status == db.StatusExpired:
		return ErrExpired
	case cur.UTR != "":
		return nil // a concurrent submission claimed first
	}
	return fmt.Errorf("%w: concurrent update", ErrConflict)
}

// Verify marks the order paid on an admin's say-so. It is terminal,
// wins any race with a submission, and is deliberately not blocked by
// expiry: a human asserting the money arrived beats the deadline.
func (e *Engine) Verify(ctx context.Context, publicID, callerRole string) error {
	if callerRole != RoleAdmin {
		return ErrForbidden
	}

	o, err := e.store.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if o.Status == db.StatusVerified {
		return nil
	}
	if o.Status == db.StatusCancelled {
		return fmt.Errorf("%w: order is cancelled", ErrConflict)
	}

	ok, err := e.store.Transition(ctx, publicID, Swap{
		From: []db.OrderStatus{db.StatusPending, db.StatusSubmitted, db.StatusExpired},
		To:   db.StatusVerified,
	})
	if err != nil {
		return err
	}
	if !ok {
		cur, err := e.store.Get(ctx, publicID)
		if err != nil {
			return err
		}
		if cur.Status == db.StatusVerified {
			return nil
		}
		return fmt.Errorf("%w: order is %s", ErrConflict, cur.Status)
	}

	slog.Info("order verified", "order_id", publicID)
	return nil
}

// Cancel is the reserved administrative exit for non-terminal orders.
func (e *Engine) Cancel(ctx context.Context, publicID, callerRole string) error {
	if callerRole != RoleAdmin {
		return ErrForbidden
	}

	o, err := e.load(ctx, publicID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order is %s", ErrConflict, o.Status)
	}

	ok, err := e.store.Transition(ctx, publicID, Swap{
		From: []db.OrderStatus{db.StatusPending, db.StatusSubmitted},
		To:   db.StatusCancelled,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: concurrent update", ErrConflict)
	}

	slog.Info("order cancelled", "order_id", publicID)
	return nil
}

// load fetches an order and applies lazy expiry: any read or mutation
// that observes a past deadline first forces the row to Expired.
// Verified and Cancelled are immune.
func (e *Engine) load(ctx context.Context, publicID string) (db.Order, error) {
	o, err := e.store.Get(ctx, publicID)
	if err != nil {
		return o, err
	}
	if o.Status.Terminal() || e.now().Before(o.ExpiresAt) {
		return o, nil
	}

	ok, err := e.store.Transition(ctx, publicID, Swap{
		From: []db.OrderStatus{o.Status},
		To:   db.StatusExpired,
	})
	if err != nil {
		return o, err
	}
	if !ok {
		// lost a race, trust whatever is stored now
		return e.store.Get(ctx, publicID)
	}
	o.Status = db.StatusExpired
	return o, nil
}
