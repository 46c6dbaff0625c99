package memory

import (
	"context"
	"sync"

	"variantsync-backend/internal/domain"
)

type productRecord struct {
	title    string
	shop     string
	variants map[string][]string
}

// SnapshotRepository is an in-memory implementation of
// domain.SnapshotRepository for tests and local development.
type SnapshotRepository struct {
	mu       sync.Mutex
	shops    map[string]string         // domain -> name
	products map[string]*productRecord // product remote id -> record
	cursors  map[string]string         // shop domain -> cursor
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{
		shops:    make(map[string]string),
		products: make(map[string]*productRecord),
		cursors:  make(map[string]string),
	}
}

func (r *SnapshotRepository) GetProductSnapshot(_ context.Context, shopDomain, productID string) (*domain.ProductSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.products[productID]
	if !ok || rec.shop != shopDomain {
		return nil, nil
	}

	snapshot := &domain.ProductSnapshot{
		ShopDomain: shopDomain,
		ProductID:  productID,
		Title:      rec.title,
		Variants:   make(map[string][]string, len(rec.variants)),
	}
	for id, urls := range rec.variants {
		snapshot.Variants[id] = append([]string(nil), urls...)
	}
	return snapshot, nil
}

func (r *SnapshotRepository) UpsertShop(_ context.Context, domainName, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[domainName] = name
	return nil
}

func (r *SnapshotRepository) UpsertProduct(_ context.Context, shopDomain, productID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.products[productID]
	if !ok {
		rec = &productRecord{shop: shopDomain, variants: make(map[string][]string)}
		r.products[productID] = rec
	}
	rec.title = title
	rec.shop = shopDomain
	return nil
}

func (r *SnapshotRepository) UpsertVariantURLs(_ context.Context, shopDomain, productID, variantID string, urls []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.products[productID]
	if !ok {
		rec = &productRecord{shop: shopDomain, variants: make(map[string][]string)}
		r.products[productID] = rec
	}
	rec.variants[variantID] = append([]string(nil), urls...)
	return nil
}

func (r *SnapshotRepository) GetSweepCursor(_ context.Context, shopDomain string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[shopDomain], nil
}

func (r *SnapshotRepository) SetSweepCursor(_ context.Context, shopDomain, cursor, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[shopDomain] = cursor
	return nil
}

func (r *SnapshotRepository) ClearSweepCursor(_ context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cursors, shopDomain)
	return nil
}

// LockProduct satisfies domain.ProductLocker. The repository mutex already
// serializes access, so this is a no-op.
func (r *SnapshotRepository) LockProduct(context.Context, string, string) error {
	return nil
}

// snapshotState deep-copies the whole store for transaction rollback.
func (r *SnapshotRepository) snapshotState() (map[string]string, map[string]*productRecord, map[string]string) {
	shops := make(map[string]string, len(r.shops))
	for k, v := range r.shops {
		shops[k] = v
	}
	products := make(map[string]*productRecord, len(r.products))
	for id, rec := range r.products {
		cp := &productRecord{title: rec.title, shop: rec.shop, variants: make(map[string][]string, len(rec.variants))}
		for vid, urls := range rec.variants {
			cp.variants[vid] = append([]string(nil), urls...)
		}
		products[id] = cp
	}
	cursors := make(map[string]string, len(r.cursors))
	for k, v := range r.cursors {
		cursors[k] = v
	}
	return shops, products, cursors
}

// TransactionManager wraps a SnapshotRepository with copy-and-restore
// rollback semantics, mirroring what the Postgres transaction gives us.
type TransactionManager struct {
	repo *SnapshotRepository
}

func NewTransactionManager(repo *SnapshotRepository) *TransactionManager {
	return &TransactionManager{repo: repo}
}

func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tm.repo.mu.Lock()
	shops, products, cursors := tm.repo.snapshotState()
	tm.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		tm.repo.mu.Lock()
		tm.repo.shops = shops
		tm.repo.products = products
		tm.repo.cursors = cursors
		tm.repo.mu.Unlock()
		return err
	}
	return nil
}
