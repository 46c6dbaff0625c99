package postgres

import (
	"context"
	"errors"
	"fmt"

	"variantsync-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// snapshotRepository implements domain.SnapshotRepository and
// domain.ProductLocker over Postgres. All methods join an in-flight
// transaction when the context carries one.
type snapshotRepository struct {
	db *pgxpool.Pool
}

func NewSnapshotRepository(db *pgxpool.Pool) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// NewProductLocker returns the advisory-lock implementation. Locks are
// transaction-scoped, so LockProduct must run inside TransactionManager.Do.
func NewProductLocker(db *pgxpool.Pool) domain.ProductLocker {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetProductSnapshot(ctx context.Context, shopDomain, productID string) (*domain.ProductSnapshot, error) {
	q := dbFromContext(ctx, r.db)

	var title string
	err := q.QueryRow(ctx, `
		SELECT p.title
		FROM products p
		JOIN shops s ON s.id = p.shop_id
		WHERE s.domain = $1 AND p.remote_id = $2
	`, shopDomain, productID).Scan(&title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// never observed before
			return nil, nil
		}
		return nil, err
	}

	snapshot := &domain.ProductSnapshot{
		ShopDomain: shopDomain,
		ProductID:  productID,
		Title:      title,
		Variants:   make(map[string][]string),
	}

	rows, err := q.Query(ctx, `
		SELECT v.remote_id, v.urls
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.remote_id = $1
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var variantID string
		var rawURLs []byte
		if err := rows.Scan(&variantID, &rawURLs); err != nil {
			return nil, err
		}
		var urls []string
		if len(rawURLs) > 0 {
			if err := json.Unmarshal(rawURLs, &urls); err != nil {
				return nil, fmt.Errorf("corrupt url list for variant %s: %w", variantID, err)
			}
		}
		snapshot.Variants[variantID] = urls
	}
	return snapshot, rows.Err()
}

func (r *snapshotRepository) UpsertShop(ctx context.Context, domainName, name string) error {
	q := dbFromContext(ctx, r.db)
	_, err := q.Exec(ctx, `
		INSERT INTO shops (domain, name) VALUES ($1, $2)
		ON CONFLICT (domain) DO UPDATE SET name = EXCLUDED.name
	`, domainName, name)
	return err
}

func (r *snapshotRepository) UpsertProduct(ctx context.Context, shopDomain, productID, title string) error {
	q := dbFromContext(ctx, r.db)
	tag, err := q.Exec(ctx, `
		INSERT INTO products (shop_id, remote_id, title)
		SELECT s.id, $2, $3 FROM shops s WHERE s.domain = $1
		ON CONFLICT (remote_id) DO UPDATE SET title = EXCLUDED.title
	`, shopDomain, productID, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shop %s not found for product %s", shopDomain, productID)
	}
	return nil
}

func (r *snapshotRepository) UpsertVariantURLs(ctx context.Context, shopDomain, productID, variantID string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return err
	}

	q := dbFromContext(ctx, r.db)
	tag, err := q.Exec(ctx, `
		INSERT INTO variants (product_id, remote_id, urls)
		SELECT p.id, $2, $3
		FROM products p
		JOIN shops s ON s.id = p.shop_id
		WHERE s.domain = $4 AND p.remote_id = $1
		ON CONFLICT (remote_id) DO UPDATE SET urls = EXCLUDED.urls, synced_at = now()
	`, productID, variantID, encoded, shopDomain)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s not found in shop %s for variant %s", productID, shopDomain, variantID)
	}
	return nil
}

func (r *snapshotRepository) GetSweepCursor(ctx context.Context, shopDomain string) (string, error) {
	q := dbFromContext(ctx, r.db)
	var cursor string
	err := q.QueryRow(ctx, `SELECT cursor FROM sweep_cursors WHERE shop_domain = $1`, shopDomain).Scan(&cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return cursor, nil
}

func (r *snapshotRepository) SetSweepCursor(ctx context.Context, shopDomain, cursor, runID string) error {
	q := dbFromContext(ctx, r.db)
	_, err := q.Exec(ctx, `
		INSERT INTO sweep_cursors (shop_domain, cursor, run_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (shop_domain) DO UPDATE
			SET cursor = EXCLUDED.cursor, run_id = EXCLUDED.run_id, updated_at = now()
	`, shopDomain, cursor, runID)
	return err
}

func (r *snapshotRepository) ClearSweepCursor(ctx context.Context, shopDomain string) error {
	q := dbFromContext(ctx, r.db)
	_, err := q.Exec(ctx, `DELETE FROM sweep_cursors WHERE shop_domain = $1`, shopDomain)
	return err
}

// LockProduct takes a transaction-scoped advisory lock keyed on
// (shop, product), serializing concurrent reconciliations of the same
// product. Released automatically at commit/rollback.
func (r *snapshotRepository) LockProduct(ctx context.Context, shopDomain, productID string) error {
	q := dbFromContext(ctx, r.db)
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, shopDomain+"|"+productID)
	return err
}
