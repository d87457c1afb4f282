package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/missionhq/internal/wallet"
)

// Ledger returns the wallet.Ledger backed by this store.
func (s *Store) Ledger() wallet.Ledger {
	return &ledger{s: s}
}

type ledger struct {
	s *Store
}

var _ wallet.Ledger = (*ledger)(nil)

func (l *ledger) Totals(ctx context.Context, userID string) (wallet.Totals, error) {
	return totals(ctx, l.s.builder(), l.s.drv, userID)
}

func (l *ledger) Items(ctx context.Context) ([]wallet.Item, error) {
	b := l.s.builder()
	var out []wallet.Item
	err := query(ctx, l.s.drv, b.Select("id", "title", "price", "stock", "created_at").
		From(b.Table(tableShopItems)).
		OrderBy("price", "id"),
		func(rows *entsql.Rows) error {
			it, err := scanItem(rows)
			out = append(out, it)
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	return out, nil
}

func (l *ledger) SaveItem(ctx context.Context, item wallet.Item) error {
	b := l.s.builder()
	_, err := exec(ctx, l.s.drv, b.Insert(tableShopItems).
		Columns("id", "title", "price", "stock", "created_at").
		Values(item.ID, item.Title, item.Price, item.Stock, utc(item.CreatedAt)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("title")
				u.SetExcluded("price")
				u.SetExcluded("stock")
			}),
		))
	if err != nil {
		return fmt.Errorf("save shop item: %w", err)
	}
	return nil
}

func (l *ledger) Purchases(ctx context.Context, userID string) ([]wallet.Purchase, error) {
	b := l.s.builder()
	var out []wallet.Purchase
	err := query(ctx, l.s.drv, b.Select("id", "user_id", "item_id", "price", "purchased_at").
		From(b.Table(tablePurchases)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("purchased_at", "id"),
		func(rows *entsql.Rows) error {
			var p wallet.Purchase
			if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.Price, &p.PurchasedAt); err != nil {
				return err
			}
			p.PurchasedAt = p.PurchasedAt.UTC()
			out = append(out, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return out, nil
}

// Atomic runs purchases serializably on Postgres so two concurrent buys
// cannot both spend the same balance. SQLite serializes writers already.
func (l *ledger) Atomic(ctx context.Context, fn func(tx wallet.LedgerTx) error) error {
	var opts *sql.TxOptions
	if l.s.dialect == dialect.Postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return l.s.atomic(ctx, opts, func(tx dialect.Tx) error {
		return fn(&ledgerTx{b: l.s.builder(), q: tx})
	})
}

type ledgerTx struct {
	b *entsql.DialectBuilder
	q querier
}

func (t *ledgerTx) Totals(ctx context.Context, userID string) (wallet.Totals, error) {
	return totals(ctx, t.b, t.q, userID)
}

func (t *ledgerTx) Item(ctx context.Context, itemID string) (wallet.Item, bool, error) {
	var (
		it    wallet.Item
		found bool
	)
	err := query(ctx, t.q, t.b.Select("id", "title", "price", "stock", "created_at").
		From(t.b.Table(tableShopItems)).
		Where(entsql.EQ("id", itemID)),
		func(rows *entsql.Rows) error {
			found = true
			var err error
			it, err = scanItem(rows)
			return err
		})
	if err != nil {
		return wallet.Item{}, false, err
	}
	return it, found, nil
}

func (t *ledgerTx) TakeStock(ctx context.Context, itemID string, expected int) (bool, error) {
	n, err := exec(ctx, t.q, t.b.Update(tableShopItems).
		Set("stock", expected-1).
		Where(entsql.And(entsql.EQ("id", itemID), entsql.EQ("stock", expected))))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *ledgerTx) RecordPurchase(ctx context.Context, p wallet.Purchase) error {
	_, err := exec(ctx, t.q, t.b.Insert(tablePurchases).
		Columns("id", "user_id", "item_id", "price", "purchased_at").
		Values(p.ID, p.UserID, p.ItemID, p.Price, utc(p.PurchasedAt)))
	if err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	return nil
}

// totals sums credited rewards and purchases for a user.
func totals(ctx context.Context, b *entsql.DialectBuilder, q querier, userID string) (wallet.Totals, error) {
	var t wallet.Totals
	err := query(ctx, q, b.Select("COALESCE(SUM(experience), 0)", "COALESCE(SUM(currency), 0)").
		From(b.Table(tableCredits)).
		Where(entsql.EQ("user_id", userID)),
		func(rows *entsql.Rows) error {
			return rows.Scan(&t.Experience, &t.Earned)
		})
	if err != nil {
		return wallet.Totals{}, fmt.Errorf("sum credits: %w", err)
	}

	err = query(ctx, q, b.Select("COALESCE(SUM(price), 0)").
		From(b.Table(tablePurchases)).
		Where(entsql.EQ("user_id", userID)),
		func(rows *entsql.Rows) error {
			return rows.Scan(&t.Spent)
		})
	if err != nil {
		return wallet.Totals{}, fmt.Errorf("sum purchases: %w", err)
	}
	return t, nil
}

func scanItem(rows *entsql.Rows) (wallet.Item, error) {
	var it wallet.Item
	if err := rows.Scan(&it.ID, &it.Title, &it.Price, &it.Stock, &it.CreatedAt); err != nil {
		return wallet.Item{}, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return it, nil
}
