package domain

import "context"

// ProductSnapshot is the last confirmed-written per-variant URL list for
// one product in one shop.
type ProductSnapshot struct {
	ShopDomain string
	ProductID  string
	Title      string
	// Variants maps variant remote id to its ordered URL list.
	Variants map[string][]string
}

// URLsFor returns the snapshot URL list for a variant and whether the
// variant has been seen before.
func (s *ProductSnapshot) URLsFor(variantID string) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	urls, ok := s.Variants[variantID]
	return urls, ok
}

// SnapshotRepository is the durable store of last-known variant URL lists
// plus the sweep resume cursors. Implementations are transaction-aware:
// when the context carries a transaction started by TransactionManager,
// all writes join it.
type SnapshotRepository interface {
	GetProductSnapshot(ctx context.Context, shopDomain, productID string) (*ProductSnapshot, error)
	UpsertShop(ctx context.Context, domain, name string) error
	UpsertProduct(ctx context.Context, shopDomain, productID, title string) error
	UpsertVariantURLs(ctx context.Context, shopDomain, productID, variantID string, urls []string) error

	GetSweepCursor(ctx context.Context, shopDomain string) (string, error)
	SetSweepCursor(ctx context.Context, shopDomain, cursor, runID string) error
	ClearSweepCursor(ctx context.Context, shopDomain string) error
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductLocker serializes reconciliation per (shop, product). The lock is
// held for the duration of the surrounding transaction.
type ProductLocker interface {
	LockProduct(ctx context.Context, shopDomain, productID string) error
}
