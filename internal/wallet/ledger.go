package wallet

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds is returned when a cadet cannot afford an item.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOutOfStock is returned when a limited item has no stock left.
	ErrOutOfStock = errors.New("out of stock")

	// ErrItemNotFound is returned for unknown shop items.
	ErrItemNotFound = errors.New("shop item not found")

	// ErrInvalidItem wraps shop item validation failures.
	ErrInvalidItem = errors.New("invalid shop item")

	// ErrUserRequired is returned when an operation has no cadet id.
	ErrUserRequired = errors.New("user id is required")
)

// Item is something cadets can buy with currency. Stock < 0 means unlimited.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Price     int       `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// Unlimited reports whether the item never runs out.
func (i Item) Unlimited() bool { return i.Stock < 0 }

// Purchase records one item bought by a cadet.
type Purchase struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ItemID      string    `json:"item_id"`
	Price       int       `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Totals aggregates a cadet's credited rewards and spending.
type Totals struct {
	Experience int
	Earned     int
	Spent      int
}

// Ledger persists shop items and purchases, and reads reward totals.
type Ledger interface {
	Totals(ctx context.Context, userID string) (Totals, error)
	Items(ctx context.Context) ([]Item, error)
	SaveItem(ctx context.Context, item Item) error
	Purchases(ctx context.Context, userID string) ([]Purchase, error)

	// Atomic runs fn as one unit of work.
	Atomic(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of operations available inside a ledger unit of work.
type LedgerTx interface {
	Totals(ctx context.Context, userID string) (Totals, error)
	Item(ctx context.Context, itemID string) (Item, bool, error)

	// TakeStock decrements a limited item's stock from expected to
	// expected-1. Reports false if the stock changed in between.
	TakeStock(ctx context.Context, itemID string, expected int) (bool, error)

	RecordPurchase(ctx context.Context, p Purchase) error
}
