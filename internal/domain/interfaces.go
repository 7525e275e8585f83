package domain

// BlobStore is the durable key/value capability backing liked-state and
// offline snapshots. Implementations must survive process restarts; Set
// failures are logged by callers and never fatal.
type BlobStore interface {
	// Get returns the stored value for key, if any
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// Remove deletes key; removing an absent key is a no-op
	Remove(key string)

	// RemovePrefix deletes every key sharing the given prefix
	RemovePrefix(prefix string)

	Close() error
}

// UploadProgress is one event on an upload's progress stream.
type UploadProgress struct {
	Sent  int64 // Bytes sent so far
	Total int64 // Total bytes to send (0 if unknown)
}

// CreateClipFields carries the metadata for a new clip upload.
type CreateClipFields struct {
	Title       string
	Description string
	ProjectID   string
	FileName    string // Original filename of the video
}
