package usecase

import (
	"context"
	"fmt"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/logger"
)

// ImageMirror copies a source image to stable storage and returns the
// mirrored public URL. Optional: when absent, uploads pull straight from
// the raw source URL.
type ImageMirror interface {
	MirrorURL(ctx context.Context, sourceURL string) (string, error)
}

// uploadCandidate is one deduplicated creation request. refs are every
// match entry sharing the raw URL; the created asset id fans out to all
// of them.
type uploadCandidate struct {
	alt       string
	source    string
	variantID string
	refs      []*domain.ImageMatch
}

// uploadMissing creates assets for every unmatched entry across all
// variants of one product in a single batched call. Entries sharing an
// identical raw URL produce one upload; failures are collected, never
// retried here. Match entries are updated in place as results arrive.
func (u *syncUsecase) uploadMissing(ctx context.Context, store domain.Store, match *domain.MatchResult) *domain.UploadSummary {
	summary := &domain.UploadSummary{}

	var candidates []*uploadCandidate
	byURL := make(map[string]*uploadCandidate)

	for vIdx := range match.Variants {
		variant := &match.Variants[vIdx]
		for iIdx := range variant.Images {
			img := &variant.Images[iIdx]
			if !img.NeedsUpload {
				continue
			}
			summary.Attempted++

			if img.RawURL == "" {
				summary.Failed++
				summary.FailedImages = append(summary.FailedImages, domain.FailedImage{
					VariantID: variant.VariantID,
					Message:   "missing raw url",
				})
				continue
			}

			if existing, ok := byURL[img.RawURL]; ok {
				existing.refs = append(existing.refs, img)
				continue
			}

			c := &uploadCandidate{
				// correlates the async creation result back to its entry
				alt:       fmt.Sprintf("%s_%d_%d", img.Name, vIdx, iIdx),
				source:    img.RawURL,
				variantID: variant.VariantID,
				refs:      []*domain.ImageMatch{img},
			}
			byURL[img.RawURL] = c
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return summary
	}

	files := make([]domain.FileCreateInput, 0, len(candidates))
	for _, c := range candidates {
		source := c.source
		if u.mirror != nil {
			mirrored, err := u.mirror.MirrorURL(ctx, c.source)
			if err != nil {
				logger.Warn().Err(err).Str("url", c.source).Msg("image mirror failed, uploading from source URL")
			} else {
				source = mirrored
			}
		}
		files = append(files, domain.FileCreateInput{
			Alt:            c.alt,
			ContentType:    domain.FileContentTypeImage,
			OriginalSource: source,
		})
	}

	result, err := u.client.CreateFiles(ctx, store, files)
	if err != nil {
		// Whole batch fails from our perspective; the remote side may have
		// partially succeeded (known inconsistency window). Not retried.
		for _, c := range candidates {
			summary.Failed += len(c.refs)
			summary.FailedImages = append(summary.FailedImages, domain.FailedImage{
				VariantID: c.variantID,
				RawURL:    c.source,
				Message:   err.Error(),
			})
		}
		return summary
	}

	byAlt := make(map[string]*uploadCandidate, len(candidates))
	for _, c := range candidates {
		byAlt[c.alt] = c
	}

	for _, f := range result.Files {
		c, ok := byAlt[f.Alt]
		if !ok {
			continue
		}
		for _, ref := range c.refs {
			ref.AssetID = f.ID
			ref.NeedsUpload = false
			ref.Matched = true
			summary.Uploaded++
		}
		delete(byAlt, f.Alt)
	}

	for _, e := range result.UserErrors {
		summary.Failed++
		summary.FailedImages = append(summary.FailedImages, domain.FailedImage{
			Field:   e.Field,
			Code:    e.Code,
			Message: e.Message,
		})
	}

	// Candidates neither returned nor rejected
	if len(result.Files) == 0 && len(result.UserErrors) == 0 {
		for _, c := range byAlt {
			summary.Failed += len(c.refs)
			summary.FailedImages = append(summary.FailedImages, domain.FailedImage{
				VariantID: c.variantID,
				RawURL:    c.source,
				Message:   "no file returned from platform",
			})
		}
	}

	return summary
}
