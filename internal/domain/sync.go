package domain

import "time"

// --- Matching ---

// ImageMatch is the match outcome for one raw source URL of one variant.
type ImageMatch struct {
	RawURL      string `json:"rawImgUrl"`
	Name        string `json:"name"`
	AssetID     string `json:"productImgId"`
	AssetURL    string `json:"productImgUrl"`
	Matched     bool   `json:"matched"`
	NeedsUpload bool   `json:"needsUpload"`
}

type VariantMatch struct {
	VariantID    string       `json:"variantId"`
	VariantTitle string       `json:"variantTitle"`
	Images       []ImageMatch `json:"dataImages"`
}

// ResolvedAssetIDs returns the ordered asset ids that resolved, skipping
// entries that never matched or uploaded.
func (m *VariantMatch) ResolvedAssetIDs() []string {
	ids := make([]string, 0, len(m.Images))
	for _, img := range m.Images {
		if img.AssetID != "" {
			ids = append(ids, img.AssetID)
		}
	}
	return ids
}

type MatchResult struct {
	Variants       []VariantMatch `json:"results"`
	UnmatchedCount int            `json:"unmatchedCount"`
}

// --- Uploading ---

type FailedImage struct {
	VariantID string   `json:"variantId,omitempty"`
	RawURL    string   `json:"rawUrl,omitempty"`
	Field     []string `json:"field,omitempty"`
	Code      string   `json:"code,omitempty"`
	Message   string   `json:"error"`
}

type UploadSummary struct {
	Attempted    int           `json:"attemptedToUpload"`
	Uploaded     int           `json:"successfullyUploaded"`
	Failed       int           `json:"failedUploads"`
	FailedImages []FailedImage `json:"failedImages"`
}

// --- Metafield writing ---

type WriteSuccess struct {
	VariantID    string `json:"variantId"`
	VariantTitle string `json:"variantTitle"`
	ImageCount   int    `json:"imageCount"`
	MetafieldID  string `json:"metafieldId"`
}

type WriteSkip struct {
	VariantID    string `json:"variantId"`
	VariantTitle string `json:"variantTitle"`
	Reason       string `json:"reason"`
}

type WriteFailure struct {
	VariantID    string   `json:"variantId"`
	VariantTitle string   `json:"variantTitle"`
	Field        []string `json:"field,omitempty"`
	Message      string   `json:"message"`
}

// WriteSummary captures everything a metafield write attempt did.
// It is returned, never raised; all failure lives in Errors.
type WriteSummary struct {
	Success []WriteSuccess `json:"success"`
	Skipped []WriteSkip    `json:"skipped"`
	Errors  []WriteFailure `json:"errors"`
}

func (s *WriteSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

// --- Reconciliation ---

// URLChange is an index-wise replacement or trailing append.
// Old is empty for appends.
type URLChange struct {
	Index int    `json:"index"`
	Old   string `json:"old,omitempty"`
	New   string `json:"new"`
}

// URLRemoval is a trailing entry present in the snapshot but gone upstream.
type URLRemoval struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

type VariantDiff struct {
	Changes []URLChange  `json:"changes,omitempty"`
	Removed []URLRemoval `json:"removed,omitempty"`
}

func (d VariantDiff) Empty() bool {
	return len(d.Changes) == 0 && len(d.Removed) == 0
}

type VariantSyncOutcome struct {
	VariantID    string      `json:"variantId"`
	VariantTitle string      `json:"variantTitle"`
	New          bool        `json:"new"`
	Drift        bool        `json:"drift"`
	Diff         VariantDiff `json:"diff"`
	Written      bool        `json:"written"`
}

// ProductSyncResult summarizes one reconciliation pass over one product.
type ProductSyncResult struct {
	StoreKey       string               `json:"storeKey"`
	ProductID      string               `json:"productId"`
	Title          string               `json:"title"`
	Warnings       []string             `json:"warnings,omitempty"`
	UnmatchedCount int                  `json:"unmatchedCount"`
	Upload         *UploadSummary       `json:"upload,omitempty"`
	Write          *WriteSummary        `json:"write,omitempty"`
	Variants       []VariantSyncOutcome `json:"variants"`
	NoOp           bool                 `json:"noop"`
}

// --- Sweeps ---

type StoreSweepResult struct {
	StoreKey      string `json:"storeKey"`
	Products      int    `json:"products"`
	Written       int    `json:"written"`
	NoOps         int    `json:"noops"`
	Failed        int    `json:"failed"`
	LastCursor    string `json:"lastCursor,omitempty"`
	ResumedCursor string `json:"resumedCursor,omitempty"`
	Error         string `json:"error,omitempty"`
}

type SweepResult struct {
	RunID      string                       `json:"runId"`
	State      string                       `json:"state"`
	StartedAt  time.Time                    `json:"startedAt"`
	FinishedAt *time.Time                   `json:"finishedAt,omitempty"`
	Stores     map[string]*StoreSweepResult `json:"stores"`
}
