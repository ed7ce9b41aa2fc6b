package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"upi-gateway/orderid"
	"upi-gateway/web/db"
)

func testEngine(t *testing.T) (*Engine, *MemStore) {
	t.Helper()
	store := NewMemStore()
	e := New(store, Config{})
	return e, store
}

func validInput() CreateInput {
	return CreateInput{
		Amount:       decimal.NewFromInt(10),
		VPA:          "shop@upi",
		MerchantName: "M",
		Note:         "x",
	}
}

func TestCreateReturnsPendingOrder(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)
	require.Len(t, o.PublicID, orderid.Length)
	for _, r := range o.PublicID {
		require.Contains(t, orderid.Alphabet, string(r))
	}
	require.Equal(t, "upi://pay?pa=shop%40upi&pn=M&am=10.00&cu=INR&tn=x&tr="+o.PublicID, o.DeepLink)

	p, err := e.GetPublic(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusPending, p.Status)
	require.Equal(t, "s***@upi", p.MaskedVPA)
	require.Equal(t, o.PublicID, p.OrderID)
}

func TestCreateDefaultsMerchantNameAndTTL(t *testing.T) {
	e, store := testEngine(t)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	in := validInput()
	in.MerchantName = ""
	o, err := e.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, DefaultMerchantName, o.MerchantName)
	require.Equal(t, now.Add(5400*time.Second), o.ExpiresAt)

	stored, err := store.Get(context.Background(), o.PublicID)
	require.NoError(t, err)
	require.Equal(t, o.DeepLink, stored.DeepLink)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Amount: decimal.Zero, VPA: "shop@upi"},
		{Amount: decimal.NewFromInt(-5), VPA: "shop@upi"},
		{Amount: decimal.NewFromInt(10), VPA: "bad"},
		{Amount: decimal.NewFromInt(10), VPA: "a@b@c"},
	} {
		_, err := e.Create(ctx, in)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCreateRetriesOnIDCollision(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	taken := db.Order{PublicID: "duplicateddup", Status: db.StatusPending, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Insert(ctx, &taken))

	ids := []string{"duplicateddup", "freshidfresh"}
	calls := 0
	e.newID = func(int) (string, error) {
		id := ids[calls]
		calls++
		return id, nil
	}

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "freshidfresh", o.PublicID)
	require.Equal(t, 2, calls)
}

func TestCreateGivesUpAfterBoundedAttempts(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	taken := db.Order{PublicID: "alwaystakenid", Status: db.StatusPending, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Insert(ctx, &taken))

	calls := 0
	e.newID = func(int) (string, error) {
		calls++
		return "alwaystakenid", nil
	}

	_, err := e.Create(ctx, validInput())
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, e.cfg.MaxIDAttempts, calls)
}

func TestSubmitUTR(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, e.SubmitUTR(ctx, o.PublicID, "UTR123456"))

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusSubmitted, stored.Status)
	require.Equal(t, "UTR123456", stored.UTR)
}

func TestSubmitUTRValidation(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	for _, utr := range []string{"", "abc", "with space1", "bad-utr-123", strings.Repeat("a", 33)} {
		err := e.SubmitUTR(ctx, o.PublicID, utr)
		require.ErrorIs(t, err, ErrInvalidInput, "utr %q", utr)
	}
}

func TestSubmitUTRUnknownOrder(t *testing.T) {
	e, _ := testEngine(t)
	err := e.SubmitUTR(context.Background(), "nosuchorder1", "UTR123456")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitUTROnExpiredOrderPersistsExpiry(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	e.now = func() time.Time { return o.ExpiresAt.Add(time.Second) }

	err = e.SubmitUTR(ctx, o.PublicID, "UTR123456")
	require.ErrorIs(t, err, ErrExpired)

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusExpired, stored.Status)
	require.Empty(t, stored.UTR)
}

func TestSubmitUTRFirstClaimWins(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, e.SubmitUTR(ctx, o.PublicID, "FIRSTUTR01"))
	require.NoError(t, e.SubmitUTR(ctx, o.PublicID, "SECONDUTR02"))

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, "FIRSTUTR01", stored.UTR)
	require.Equal(t, db.StatusSubmitted, stored.Status)
}

func TestSubmitUTRNeverRevertsVerified(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, e.Verify(ctx, o.PublicID, RoleAdmin))

	err = e.SubmitUTR(ctx, o.PublicID, "UTR123456")
	require.ErrorIs(t, err, ErrConflict)

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusVerified, stored.Status)
}

func TestVerifyRequiresAdmin(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.ErrorIs(t, e.Verify(ctx, o.PublicID, RoleUser), ErrForbidden)
	require.ErrorIs(t, e.Verify(ctx, o.PublicID, ""), ErrForbidden)

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusPending, stored.Status)
}

func TestVerifyNotBlockedByExpiry(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	e.now = func() time.Time { return o.ExpiresAt.Add(time.Minute) }

	// reading forces the lazy expiry first
	p, err := e.GetPublic(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusExpired, p.Status)

	require.NoError(t, e.Verify(ctx, o.PublicID, RoleAdmin))

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusVerified, stored.Status)
}

func TestVerifyIdempotent(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, e.Verify(ctx, o.PublicID, RoleAdmin))
	require.NoError(t, e.Verify(ctx, o.PublicID, RoleAdmin))
}

func TestVerifiedImmuneToExpiry(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, e.Verify(ctx, o.PublicID, RoleAdmin))

	e.now = func() time.Time { return o.ExpiresAt.Add(time.Hour) }

	p, err := e.GetPublic(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusVerified, p.Status)
}

func TestCancel(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	require.ErrorIs(t, e.Cancel(ctx, o.PublicID, RoleUser), ErrForbidden)
	require.NoError(t, e.Cancel(ctx, o.PublicID, RoleAdmin))

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusCancelled, stored.Status)

	// terminal: cannot cancel again, cannot verify
	require.ErrorIs(t, e.Cancel(ctx, o.PublicID, RoleAdmin), ErrConflict)
	require.ErrorIs(t, e.Verify(ctx, o.PublicID, RoleAdmin), ErrConflict)
}

func TestGetPublicLazyExpiry(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	o, err := e.Create(ctx, validInput())
	require.NoError(t, err)

	e.now = func() time.Time { return o.ExpiresAt.Add(time.Second) }

	p, err := e.GetPublic(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusExpired, p.Status)

	stored, err := store.Get(ctx, o.PublicID)
	require.NoError(t, err)
	require.Equal(t, db.StatusExpired, stored.Status)
}

func TestGetPublicUnknownOrder(t *testing.T) {
	e, _ := testEngine(t)
	_, err := e.GetPublic(context.Background(), "nosuchorder1")
	require.ErrorIs(t, err, ErrNotFound)
}
