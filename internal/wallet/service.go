package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/missionhq/internal/logger"
)

// Balance is a cadet's spendable position.
type Balance struct {
	Experience int `json:"experience"`
	Currency   int `json:"currency"` // earned minus spent
	Spent      int `json:"spent"`
}

// Standing is a cadet's balance together with their rank.
type Standing struct {
	UserID   string  `json:"user_id"`
	Balance  Balance `json:"balance"`
	Rank     Rank    `json:"rank"`
	NextRank *Rank   `json:"next_rank,omitempty"`
	ToNext   int     `json:"to_next"`
	Progress float64 `json:"progress"`
}

// Service exposes balances, ranks and the shop.
type Service struct {
	ledger Ledger
	ranks  []Rank
	now    func() time.Time
	newID  func() string
	log    *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRanks replaces DefaultRanks.
func WithRanks(ranks []Rank) Option {
	return func(s *Service) { s.ranks = ranks }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a wallet service backed by ledger.
func NewService(ledger Ledger, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		ranks:  DefaultRanks,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Standing computes the cadet's balance and rank.
func (s *Service) Standing(ctx context.Context, userID string) (Standing, error) {
	t, err := s.ledger.Totals(ctx, userID)
	if err != nil {
		return Standing{}, fmt.Errorf("load totals: %w", err)
	}
	bal := balanceOf(t)
	rank, next := RankFor(s.ranks, bal.Experience)
	st := Standing{
		UserID:   userID,
		Balance:  bal,
		Rank:     rank,
		NextRank: next,
		Progress: RankProgress(rank, next, bal.Experience),
	}
	if next != nil {
		st.ToNext = next.MinExperience - bal.Experience
	}
	return st, nil
}

// AddItem creates or replaces a shop item.
func (s *Service) AddItem(ctx context.Context, item Item) (Item, error) {
	item.ID = strings.TrimSpace(item.ID)
	switch {
	case item.ID == "":
		return Item{}, fmt.Errorf("%w: id is required", ErrInvalidItem)
	case item.Title == "":
		return Item{}, fmt.Errorf("%w: title is required", ErrInvalidItem)
	case item.Price < 0:
		return Item{}, fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	if err := s.ledger.SaveItem(ctx, item); err != nil {
		return Item{}, fmt.Errorf("save item: %w", err)
	}
	s.log.Info("shop item saved", "item_id", item.ID, "price", item.Price, "stock", item.Stock)
	return item, nil
}

// Items lists the shop.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	return s.ledger.Items(ctx)
}

// Purchases lists what the cadet bought.
func (s *Service) Purchases(ctx context.Context, userID string) ([]Purchase, error) {
	return s.ledger.Purchases(ctx, userID)
}

// Buy spends the cadet's currency on an item. Balance check, stock
// decrement and purchase record commit together.
func (s *Service) Buy(ctx context.Context, userID, itemID string) (Purchase, error) {
	if userID == "" {
		return Purchase{}, fmt.Errorf("buy: %w", ErrUserRequired)
	}
	var p Purchase
	err := s.ledger.Atomic(ctx, func(tx LedgerTx) error {
		item, ok, err := tx.Item(ctx, itemID)
		if err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		if !ok {
			return fmt.Errorf("buy %q: %w", itemID, ErrItemNotFound)
		}
		if item.Stock == 0 {
			return fmt.Errorf("buy %q: %w", itemID, ErrOutOfStock)
		}

		t, err := tx.Totals(ctx, userID)
		if err != nil {
			return fmt.Errorf("load totals: %w", err)
		}
		if bal := balanceOf(t); bal.Currency < item.Price {
			return fmt.Errorf("buy %q: %w: have %d, need %d", itemID, ErrInsufficientFunds, bal.Currency, item.Price)
		}

		if !item.Unlimited() {
			taken, err := tx.TakeStock(ctx, itemID, item.Stock)
			if err != nil {
				return fmt.Errorf("take stock: %w", err)
			}
			if !taken {
				return fmt.Errorf("buy %q: %w", itemID, ErrOutOfStock)
			}
		}

		p = Purchase{
			ID:          s.newID(),
			UserID:      userID,
			ItemID:      itemID,
			Price:       item.Price,
			PurchasedAt: s.now().UTC(),
		}
		return tx.RecordPurchase(ctx, p)
	})
	if err != nil {
		return Purchase{}, err
	}
	s.log.Info("purchase", "user_id", userID, "item_id", itemID, "price", p.Price)
	return p, nil
}

func balanceOf(t Totals) Balance {
	return Balance{Experience: t.Experience, Currency: t.Earned - t.Spent, Spent: t.Spent}
}
