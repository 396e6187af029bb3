package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("stock item not found")

// Tx is one storage transaction over the stock rows. The caller owns the
// lifecycle: whoever calls Begin must Commit or Rollback; the engine only
// reads and mutates through the handle it is given.
type Tx interface {
	// GetQuantity returns the current quantity, or found=false when the
	// product has no row. The read locks the row so a concurrent reservation
	// against the same product waits behind this transaction.
	GetQuantity(ctx context.Context, productID string) (qty int, found bool, err error)

	// Decrement subtracts amount from the row. The caller has already checked
	// sufficiency; the conditional WHERE still refuses to drive quantity
	// negative and reports that as an error.
	Decrement(ctx context.Context, productID string, amount int) error

	// UpsertAdd inserts a row with quantity=amount, or adds amount to an
	// existing row.
	UpsertAdd(ctx context.Context, productID string, amount int) error

	// MarkProcessed records an inbound message key. fresh=false means the key
	// was already recorded by a previously committed transaction, i.e. this
	// delivery is a replay and its mutation must be skipped.
	MarkProcessed(ctx context.Context, key string) (fresh bool, err error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// PGStore is the pgx-backed Store, plus the plain read/write queries the HTTP
// surface uses outside any reservation transaction.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) GetQuantity(ctx context.Context, productID string) (int, bool, error) {
	var qty int
	err := t.tx.QueryRow(ctx,
		`SELECT quantity FROM inventory_items WHERE product_id=$1 FOR UPDATE`, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (t *pgTx) Decrement(ctx context.Context, productID string, amount int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE product_id = $1 AND quantity >= $2`, productID, amount)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock for product %s no longer sufficient", productID)
	}
	return nil
}

func (t *pgTx) UpsertAdd(ctx context.Context, productID string, amount int) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_items (product_id, quantity)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = inventory_items.quantity + EXCLUDED.quantity,
			updated_at = now()`, productID, amount)
	return err
}

func (t *pgTx) MarkProcessed(ctx context.Context, key string) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		INSERT INTO processed_messages (message_key)
		VALUES ($1)
		ON CONFLICT (message_key) DO NOTHING`, key)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// ---- pool-scoped queries for the HTTP surface ----

func (s *PGStore) GetItem(ctx context.Context, productID string) (StockItem, error) {
	var it StockItem
	err := s.DB.QueryRow(ctx, `
		SELECT id, product_id, quantity, created_at, updated_at
		FROM inventory_items WHERE product_id=$1`, productID).
		Scan(&it.ID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrNotFound
	}
	if err != nil {
		return StockItem{}, err
	}
	return it, nil
}

func (s *PGStore) ListItems(ctx context.Context) ([]StockItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, product_id, quantity, created_at, updated_at
		FROM inventory_items ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockItem
	for rows.Next() {
		var it StockItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetQuantity overwrites the row's quantity, creating the row if needed, and
// returns the stored item.
func (s *PGStore) SetQuantity(ctx context.Context, productID string, qty int) (StockItem, error) {
	var it StockItem
	err := s.DB.QueryRow(ctx, `
		INSERT INTO inventory_items (product_id, quantity)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = now()
		RETURNING id, product_id, quantity, created_at, updated_at`, productID, qty).
		Scan(&it.ID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return StockItem{}, err
	}
	return it, nil
}
