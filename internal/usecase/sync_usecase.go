package usecase

import (
	"context"
	"fmt"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/logger"
)

type SyncUsecase interface {
	// SyncProduct reconciles one product's variant metafields against the
	// authoritative source URLs. Idempotent: a second run with no upstream
	// change is a detected no-op.
	SyncProduct(ctx context.Context, storeKey, productID string) (*domain.ProductSyncResult, error)

	// DeleteVariantImages forces every variant's asset list to empty, a
	// reconciliation with the target state forced to nothing.
	DeleteVariantImages(ctx context.Context, storeKey, productID string) (*domain.ProductSyncResult, error)

	// StoreFor resolves a configured store. Unknown keys are a caller
	// configuration error surfaced before any remote call.
	StoreFor(key string) (domain.Store, error)
}

type syncUsecase struct {
	client    domain.CatalogClient
	snapshots domain.SnapshotRepository
	locker    domain.ProductLocker
	tx        domain.TransactionManager
	stores    map[string]domain.Store
	mirror    ImageMirror
}

// NewSyncUsecase wires the reconciliation engine. locker and mirror may be
// nil (no per-product serialization / no mirroring).
func NewSyncUsecase(
	client domain.CatalogClient,
	snapshots domain.SnapshotRepository,
	locker domain.ProductLocker,
	tx domain.TransactionManager,
	stores map[string]domain.Store,
	mirror ImageMirror,
) SyncUsecase {
	return &syncUsecase{
		client:    client,
		snapshots: snapshots,
		locker:    locker,
		tx:        tx,
		stores:    stores,
		mirror:    mirror,
	}
}

func (u *syncUsecase) StoreFor(key string) (domain.Store, error) {
	store, ok := u.stores[key]
	if !ok {
		return domain.Store{}, fmt.Errorf("%w: %s", domain.ErrStoreNotConfigured, key)
	}
	return store, nil
}

func (u *syncUsecase) SyncProduct(ctx context.Context, storeKey, productID string) (*domain.ProductSyncResult, error) {
	store, err := u.StoreFor(storeKey)
	if err != nil {
		return nil, err
	}

	product, err := u.client.GetProduct(ctx, store, productID)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("store", store.Key).
		Str("product_id", product.ID).
		Int("media", len(product.Media)).
		Int("variant_images", product.TotalVariantImageCount()).
		Bool("filled", product.IsFilled()).
		Msg("fetched product")

	return u.reconcileProduct(ctx, store, product)
}

// reconcileProduct runs extract -> match -> upload -> write -> snapshot
// for one product inside one transaction. The snapshot only advances for
// variants whose metafield write was individually confirmed; a transport
// or protocol failure rolls the whole product back.
func (u *syncUsecase) reconcileProduct(ctx context.Context, store domain.Store, product *domain.Product) (*domain.ProductSyncResult, error) {
	result := &domain.ProductSyncResult{
		StoreKey:  store.Key,
		ProductID: product.ID,
		Title:     product.Title,
		Warnings:  product.ConsistencyWarnings(),
	}

	err := u.tx.Do(ctx, func(txCtx context.Context) error {
		if u.locker != nil {
			if err := u.locker.LockProduct(txCtx, store.URL, product.ID); err != nil {
				return fmt.Errorf("lock product: %w", err)
			}
		}

		snapshot, err := u.snapshots.GetProductSnapshot(txCtx, store.URL, product.ID)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}

		match := MatchProductImages(product)
		result.UnmatchedCount = match.UnmatchedCount

		// Decide per variant whether a write is needed.
		writeSet := make(map[string]bool)
		targetURLs := make(map[string][]string)
		outcomes := make(map[string]*domain.VariantSyncOutcome)

		// outcomes holds pointers into result.Variants; reserve capacity up
		// front so later appends never reallocate out from under them.
		result.Variants = make([]domain.VariantSyncOutcome, 0, len(product.Variants))

		for i := range product.Variants {
			v := &product.Variants[i]
			urls := rawURLs(v.RawImages)
			snapURLs, seen := snapshot.URLsFor(v.ID)

			outcome := domain.VariantSyncOutcome{
				VariantID:    v.ID,
				VariantTitle: v.Title,
				New:          !seen,
				Diff:         DiffURLs(snapURLs, urls),
			}

			if seen && len(v.AssetIDs) != len(snapURLs) {
				// resolved ids drifted out of shape; force a write to bring
				// metadata back in step, ids are re-resolved from media below
				outcome.Drift = true
			}

			if !seen || !outcome.Diff.Empty() || outcome.Drift {
				writeSet[v.ID] = true
				targetURLs[v.ID] = urls
			}

			result.Variants = append(result.Variants, outcome)
			outcomes[v.ID] = &result.Variants[len(result.Variants)-1]
		}

		if len(writeSet) == 0 {
			result.NoOp = true
			return nil
		}

		if err := u.snapshots.UpsertShop(txCtx, store.URL, store.Name); err != nil {
			return fmt.Errorf("upsert shop: %w", err)
		}
		if err := u.snapshots.UpsertProduct(txCtx, store.URL, product.ID, product.Title); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}

		pending := restrictMatches(match, writeSet)

		if pending.UnmatchedCount > 0 {
			result.Upload = u.uploadMissing(ctx, store, pending)
		}

		// Count invariant: a variant whose resolved ids fall short of its
		// raw URLs is surfaced, not silently written away.
		for i := range pending.Variants {
			vm := &pending.Variants[i]
			if resolved := len(vm.ResolvedAssetIDs()); resolved != len(vm.Images) {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"%s resolved %d of %d images", vm.VariantTitle, resolved, len(vm.Images)))
			}
		}

		writeSummary, hardErr := u.writeMetafields(ctx, store, pending.Variants, false)
		result.Write = writeSummary
		if hardErr != nil {
			return fmt.Errorf("metafield write failed: %w", hardErr)
		}

		// Advance the snapshot only for individually confirmed variants.
		for _, success := range writeSummary.Success {
			urls, ok := targetURLs[success.VariantID]
			if !ok {
				continue
			}
			if err := u.snapshots.UpsertVariantURLs(txCtx, store.URL, product.ID, success.VariantID, urls); err != nil {
				return fmt.Errorf("upsert variant snapshot: %w", err)
			}
			if outcome := outcomes[success.VariantID]; outcome != nil {
				outcome.Written = true
			}
		}

		return nil
	})
	if err != nil {
		logger.Error().Err(err).
			Str("store", store.Key).
			Str("product_id", product.ID).
			Msg("product reconciliation failed")
		return result, err
	}

	if result.NoOp {
		logger.Debug().
			Str("store", store.Key).
			Str("product_id", product.ID).
			Msg("no change detected, skipping write")
	}
	return result, nil
}

func (u *syncUsecase) DeleteVariantImages(ctx context.Context, storeKey, productID string) (*domain.ProductSyncResult, error) {
	store, err := u.StoreFor(storeKey)
	if err != nil {
		return nil, err
	}

	product, err := u.client.GetProduct(ctx, store, productID)
	if err != nil {
		return nil, err
	}

	result := &domain.ProductSyncResult{
		StoreKey:  store.Key,
		ProductID: product.ID,
		Title:     product.Title,
	}

	err = u.tx.Do(ctx, func(txCtx context.Context) error {
		if u.locker != nil {
			if err := u.locker.LockProduct(txCtx, store.URL, product.ID); err != nil {
				return fmt.Errorf("lock product: %w", err)
			}
		}

		matches := make([]domain.VariantMatch, 0, len(product.Variants))
		for _, v := range product.Variants {
			matches = append(matches, domain.VariantMatch{
				VariantID:    v.ID,
				VariantTitle: v.Title,
			})
		}

		writeSummary, hardErr := u.writeMetafields(ctx, store, matches, true)
		result.Write = writeSummary
		if hardErr != nil {
			return fmt.Errorf("metafield delete failed: %w", hardErr)
		}

		if err := u.snapshots.UpsertShop(txCtx, store.URL, store.Name); err != nil {
			return fmt.Errorf("upsert shop: %w", err)
		}
		if err := u.snapshots.UpsertProduct(txCtx, store.URL, product.ID, product.Title); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}

		// An emptied variant is a confirmed empty target state; record it
		// so the next reconcile pass sees the full URL list as new again.
		for _, success := range writeSummary.Success {
			if err := u.snapshots.UpsertVariantURLs(txCtx, store.URL, product.ID, success.VariantID, []string{}); err != nil {
				return fmt.Errorf("upsert variant snapshot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func rawURLs(refs []domain.ImageRef) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	return urls
}

// restrictMatches narrows a match result to the variants in keep.
func restrictMatches(match *domain.MatchResult, keep map[string]bool) *domain.MatchResult {
	out := &domain.MatchResult{}
	for _, vm := range match.Variants {
		if !keep[vm.VariantID] {
			continue
		}
		for _, img := range vm.Images {
			if img.NeedsUpload {
				out.UnmatchedCount++
			}
		}
		out.Variants = append(out.Variants, vm)
	}
	return out
}
