package sidecar

// DefaultExtension is appended to the organized file's path to name its
// metadata file.
const DefaultExtension = "meta"

// Keys of the provenance lines added to fetched metadata.
const (
	KeyISBN             = "ISBN"
	KeyAllISBNs         = "All found ISBNs"
	KeyOldFilePath      = "Old file path"
	KeyMetadataSource   = "Metadata source"
	KeyMetaFetchMethod  = "Meta fetch method"
	KeyCorruptionReason = "Corruption reason"
)
