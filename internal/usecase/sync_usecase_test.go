package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"variantsync-backend/internal/domain"
	"variantsync-backend/internal/repository/memory"
	"variantsync-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("test", "error")
	os.Exit(m.Run())
}

// fakeClient is a scripted domain.CatalogClient. Defaults behave like a
// healthy platform: every file creates, every metafield sets.
type fakeClient struct {
	product *domain.Product
	pages   []*domain.ProductPage
	getErr  error

	createFilesFn   func(files []domain.FileCreateInput) (*domain.FileCreateResult, error)
	setMetafieldsFn func(inputs []domain.MetafieldInput) (*domain.MetafieldsSetResult, error)

	createCalls [][]domain.FileCreateInput
	setCalls    [][]domain.MetafieldInput
	listCalls   []string
}

func (f *fakeClient) GetProduct(_ context.Context, _ domain.Store, _ string) (*domain.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return cloneProduct(f.product), nil
}

func (f *fakeClient) ListProducts(_ context.Context, _ domain.Store, cursor string, _ int) (*domain.ProductPage, error) {
	f.listCalls = append(f.listCalls, cursor)
	if len(f.pages) == 0 {
		return &domain.ProductPage{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeClient) CreateFiles(_ context.Context, _ domain.Store, files []domain.FileCreateInput) (*domain.FileCreateResult, error) {
	f.createCalls = append(f.createCalls, files)
	if f.createFilesFn != nil {
		return f.createFilesFn(files)
	}
	result := &domain.FileCreateResult{}
	for i, file := range files {
		result.Files = append(result.Files, domain.CreatedFile{
			ID:         fmt.Sprintf("gid://shopify/MediaImage/created-%d", i),
			Alt:        file.Alt,
			FileStatus: "UPLOADED",
		})
	}
	return result, nil
}

func (f *fakeClient) SetMetafields(_ context.Context, _ domain.Store, inputs []domain.MetafieldInput) (*domain.MetafieldsSetResult, error) {
	f.setCalls = append(f.setCalls, inputs)
	if f.setMetafieldsFn != nil {
		return f.setMetafieldsFn(inputs)
	}
	result := &domain.MetafieldsSetResult{}
	for i, in := range inputs {
		f.applyWrite(in)
		result.Metafields = append(result.Metafields, domain.MetafieldResult{
			ID:        fmt.Sprintf("gid://shopify/Metafield/%d", i),
			Key:       in.Key,
			Namespace: in.Namespace,
		})
	}
	return result, nil
}

// applyWrite updates the scripted product the way the platform would, so
// the next GetProduct reflects the accepted metafield value.
func (f *fakeClient) applyWrite(in domain.MetafieldInput) {
	if f.product == nil {
		return
	}
	var ids []string
	if err := json.Unmarshal([]byte(in.Value), &ids); err != nil {
		return
	}
	for i := range f.product.Variants {
		v := &f.product.Variants[i]
		if v.ID == in.OwnerID {
			v.AssetIDs = ids
			v.Filled = len(ids) > 0
			return
		}
	}
}

// cloneProduct keeps the scripted product pristine across calls, since the
// engine mutates what it fetched.
func cloneProduct(p *domain.Product) *domain.Product {
	raw, _ := json.Marshal(p)
	var out domain.Product
	_ = json.Unmarshal(raw, &out)
	return &out
}

const (
	testShopURL = "https://shop1.example.com"
	productID   = "gid://shopify/Product/1"
	variantRed  = "gid://shopify/ProductVariant/100"
	variantBlue = "gid://shopify/ProductVariant/101"
)

func testProduct() *domain.Product {
	return &domain.Product{
		ID:    productID,
		Title: "Widget",
		Media: []domain.MediaAsset{
			mediaAsset("gid://shopify/MediaImage/10", "https://cdn.example.com/red.jpg"),
			mediaAsset("gid://shopify/MediaImage/11", "https://cdn.example.com/blue.jpg"),
		},
		Variants: []domain.Variant{
			{
				ID:        variantRed,
				Title:     "Red",
				RawImages: []domain.ImageRef{imageRef("https://src.example.org/red.jpg")},
			},
			{
				ID:        variantBlue,
				Title:     "Blue",
				RawImages: []domain.ImageRef{imageRef("https://src.example.org/blue.jpg")},
			},
		},
	}
}

type fixture struct {
	client *fakeClient
	repo   *memory.SnapshotRepository
	uc     SyncUsecase
}

func newFixture(client *fakeClient, mirror ImageMirror) *fixture {
	repo := memory.NewSnapshotRepository()
	stores := map[string]domain.Store{
		"shop1": {Key: "shop1", Name: "Shop One", URL: testShopURL, Token: "token"},
	}
	uc := NewSyncUsecase(client, repo, repo, memory.NewTransactionManager(repo), stores, mirror)
	return &fixture{client: client, repo: repo, uc: uc}
}

func TestSyncProductFirstRun(t *testing.T) {
	f := newFixture(&fakeClient{product: testProduct()}, nil)

	result, err := f.uc.SyncProduct(context.Background(), "shop1", productID)
	require.NoError(t, err)

	assert.False(t, result.NoOp)
	assert.Zero(t, result.UnmatchedCount)
	require.NotNil(t, result.Write)
	assert.Len(t, result.Write.Success, 2)
	assert.Empty(t, result.Write.Errors)

	require.Len(t, result.Variants, 2)
	for _, v := range result.Variants {
		assert.True(t, v.New)
		assert.True(t, v.Written)
	}

	// one batched write, ordered resolved ids
	require.Len(t, f.client.setCalls, 1)
	payload := f.client.setCalls[0]
	require.Len(t, payload, 2)
	assert.Equal(t, variantRed, payload[0].OwnerID)
	assert.Equal(t, domain.MetafieldNamespace, payload[0].Namespace)
	assert.Equal(t, domain.MetafieldKeyAssets, payload[0].Key)
	assert.Equal(t, domain.MetafieldTypeFileList, payload[0].Type)
	assert.JSONEq(t, `["gid://shopify/MediaImage/10"]`, payload[0].Value)

	snapshot, err := f.repo.GetProductSnapshot(context.Background(), testShopURL, productID)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, []string{"https://src.example.org/red.jpg"}, snapshot.Variants[variantRed])
	assert.Equal(t, []string{"https://src.example.org/blue.jpg"}, snapshot.Variants[variantBlue])
}

func TestSyncProductSecondRunIsNoOp(t *testing.T) {
	f := newFixture(&fakeClient{product: testProduct()}, nil)
	ctx := context.Background()

	_, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	result, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	assert.True(t, result.NoOp)
	assert.Nil(t, result.Write)
	assert.Len(t, f.client.setCalls, 1, "no second write for unchanged product")
}

func TestSyncProductUploadsMissingDeduplicated(t *testing.T) {
	product := testProduct()
	// both variants reference the same not-yet-hosted image
	shared := imageRef("https://src.example.org/shared-new.jpg")
	product.Variants[0].RawImages = append(product.Variants[0].RawImages, shared)
	product.Variants[1].RawImages = append(product.Variants[1].RawImages, shared)

	f := newFixture(&fakeClient{product: product}, nil)

	result, err := f.uc.SyncProduct(context.Background(), "shop1", productID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.UnmatchedCount)
	require.NotNil(t, result.Upload)
	assert.Equal(t, 2, result.Upload.Attempted)
	assert.Equal(t, 2, result.Upload.Uploaded)
	assert.Zero(t, result.Upload.Failed)

	// one creation request for the shared URL
	require.Len(t, f.client.createCalls, 1)
	require.Len(t, f.client.createCalls[0], 1)
	assert.Equal(t, "https://src.example.org/shared-new.jpg", f.client.createCalls[0][0].OriginalSource)

	// both variants got the same created id, appended after their match
	require.Len(t, f.client.setCalls, 1)
	for _, in := range f.client.setCalls[0] {
		var ids []string
		require.NoError(t, json.Unmarshal([]byte(in.Value), &ids))
		require.Len(t, ids, 2)
		assert.Equal(t, "gid://shopify/MediaImage/created-0", ids[1])
	}
}

func TestSyncProductTransportFailureLeavesSnapshotUntouched(t *testing.T) {
	product := testProduct()
	f := newFixture(&fakeClient{product: product}, nil)
	ctx := context.Background()

	_, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	// upstream URL changes, then the write dies on the wire
	f.client.product.Variants[0].RawImages = []domain.ImageRef{
		imageRef("https://src.example.org/blue.jpg"),
	}
	f.client.setMetafieldsFn = func([]domain.MetafieldInput) (*domain.MetafieldsSetResult, error) {
		return nil, errors.New("connection reset")
	}

	result, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.Error(t, err)

	require.NotNil(t, result.Write)
	assert.Empty(t, result.Write.Success)
	require.Len(t, result.Write.Errors, 1)
	assert.Equal(t, variantRed, result.Write.Errors[0].VariantID)

	snapshot, err := f.repo.GetProductSnapshot(ctx, testShopURL, productID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://src.example.org/red.jpg"}, snapshot.Variants[variantRed],
		"failed write must not advance the snapshot")
}

func TestSyncProductFieldErrorAttribution(t *testing.T) {
	product := testProduct()
	f := newFixture(&fakeClient{product: product}, nil)
	ctx := context.Background()

	f.client.setMetafieldsFn = func(inputs []domain.MetafieldInput) (*domain.MetafieldsSetResult, error) {
		// first input succeeds, second is rejected field-level
		return &domain.MetafieldsSetResult{
			Metafields: []domain.MetafieldResult{{ID: "gid://shopify/Metafield/1"}},
			UserErrors: []domain.UserError{{
				Field:   []string{"metafields", "1", "value"},
				Message: "invalid file reference",
			}},
		}, nil
	}

	result, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err, "field-level errors are reported, not raised")

	require.Len(t, result.Write.Success, 1)
	assert.Equal(t, variantRed, result.Write.Success[0].VariantID)
	require.Len(t, result.Write.Errors, 1)
	assert.Equal(t, variantBlue, result.Write.Errors[0].VariantID)

	// only the confirmed variant advanced
	snapshot, err := f.repo.GetProductSnapshot(ctx, testShopURL, productID)
	require.NoError(t, err)
	assert.Contains(t, snapshot.Variants, variantRed)
	assert.NotContains(t, snapshot.Variants, variantBlue)
}

func TestSyncProductDriftForcesWrite(t *testing.T) {
	product := testProduct()
	f := newFixture(&fakeClient{product: product}, nil)
	ctx := context.Background()

	_, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	// same URLs upstream, but the stored id list grew a stray entry
	f.client.product.Variants[0].AssetIDs = []string{
		"gid://shopify/MediaImage/10", "gid://shopify/MediaImage/99",
	}

	result, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	assert.False(t, result.NoOp)
	require.Len(t, result.Variants, 2)
	assert.True(t, result.Variants[0].Drift)
	assert.True(t, result.Variants[0].Written)
	assert.False(t, result.Variants[1].Drift)

	// only the drifted variant is rewritten
	require.Len(t, f.client.setCalls, 2)
	require.Len(t, f.client.setCalls[1], 1)
	assert.Equal(t, variantRed, f.client.setCalls[1][0].OwnerID)
}

func TestDeleteVariantImages(t *testing.T) {
	product := testProduct()
	f := newFixture(&fakeClient{product: product}, nil)
	ctx := context.Background()

	_, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)

	result, err := f.uc.DeleteVariantImages(ctx, "shop1", productID)
	require.NoError(t, err)

	require.NotNil(t, result.Write)
	assert.Len(t, result.Write.Success, 2)

	require.Len(t, f.client.setCalls, 2)
	for _, in := range f.client.setCalls[1] {
		assert.JSONEq(t, `[]`, in.Value)
	}

	// emptied variants are recorded, so a later sync repopulates them
	snapshot, err := f.repo.GetProductSnapshot(ctx, testShopURL, productID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Variants[variantRed])
	assert.Empty(t, snapshot.Variants[variantBlue])

	repop, err := f.uc.SyncProduct(ctx, "shop1", productID)
	require.NoError(t, err)
	assert.False(t, repop.NoOp)
	assert.Len(t, repop.Write.Success, 2)
}

func TestSyncProductUnknownStore(t *testing.T) {
	f := newFixture(&fakeClient{product: testProduct()}, nil)

	_, err := f.uc.SyncProduct(context.Background(), "nope", productID)
	assert.ErrorIs(t, err, domain.ErrStoreNotConfigured)
}

type fakeMirror struct {
	calls []string
	err   error
}

func (m *fakeMirror) MirrorURL(_ context.Context, sourceURL string) (string, error) {
	m.calls = append(m.calls, sourceURL)
	if m.err != nil {
		return "", m.err
	}
	return "https://mirror.example.com/m/" + sourceURL[len("https://src.example.org/"):], nil
}

func TestSyncProductMirrorsUploads(t *testing.T) {
	product := testProduct()
	product.Variants[0].RawImages = append(product.Variants[0].RawImages,
		imageRef("https://src.example.org/fresh.jpg"))

	mirror := &fakeMirror{}
	f := newFixture(&fakeClient{product: product}, mirror)

	_, err := f.uc.SyncProduct(context.Background(), "shop1", productID)
	require.NoError(t, err)

	require.Len(t, mirror.calls, 1)
	require.Len(t, f.client.createCalls, 1)
	assert.Equal(t, "https://mirror.example.com/m/fresh.jpg", f.client.createCalls[0][0].OriginalSource)
}

func TestSyncProductMirrorFailureFallsBackToSource(t *testing.T) {
	product := testProduct()
	product.Variants[0].RawImages = append(product.Variants[0].RawImages,
		imageRef("https://src.example.org/fresh.jpg"))

	mirror := &fakeMirror{err: errors.New("bucket unavailable")}
	f := newFixture(&fakeClient{product: product}, mirror)

	result, err := f.uc.SyncProduct(context.Background(), "shop1", productID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Upload.Uploaded)
	require.Len(t, f.client.createCalls, 1)
	assert.Equal(t, "https://src.example.org/fresh.jpg", f.client.createCalls[0][0].OriginalSource)
}
