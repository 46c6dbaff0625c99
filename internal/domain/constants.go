package domain

// Variant metafields (namespace "custom")
const (
	MetafieldNamespace = "custom"

	// MetafieldKeyImageURLs holds the authoritative raw source-image URL list
	// maintained upstream.
	MetafieldKeyImageURLs = "variant_images_url"

	// MetafieldKeyAssets holds the resolved media asset ids this engine writes.
	MetafieldKeyAssets = "variant_images"

	// MetafieldTypeFileList is the Shopify metafield type of the asset list.
	MetafieldTypeFileList = "list.file_reference"
)

// File creation
const (
	FileContentTypeImage = "IMAGE"
)

// Sweep run states
const (
	SweepStateRunning   = "running"
	SweepStateCancelled = "cancelled"
	SweepStateFailed    = "failed"
	SweepStateCompleted = "completed"
)
