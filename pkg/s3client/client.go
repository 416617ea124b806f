package s3client

import (
	"context"
	"fmt"
	"io"
)

// ObjectInfo is the listing snapshot of one remote object. The content
// hash is not part of the listing; it is fetched lazily per key through
// ObjectHash because it costs a metadata round-trip.
type ObjectInfo struct {
	Key  string
	Size int64
}

// PutRequest describes one object write.
type PutRequest struct {
	Bucket       string
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	CacheControl string

	// ContentHash is stored as object metadata so future runs can
	// compare without downloading. Empty means no hash metadata
	// (redirect entries carry no payload to hash).
	ContentHash string

	// RedirectLocation, when set, makes the object a website redirect
	// pointing at the given key or absolute URL.
	RedirectLocation string
}

// Client is the object-store capability the sync engine consumes.
type Client interface {
	// List returns every object under the prefix, paginating
	// exhaustively. A partial listing would corrupt the diff baseline.
	List(ctx context.Context, bucket, prefix string) (map[string]ObjectInfo, error)

	// ObjectHash returns the stored content hash metadata for a key,
	// or "" when the object has none (or no longer exists).
	ObjectHash(ctx context.Context, bucket, key string) (string, error)

	// Put writes one object. Assumed atomic per key.
	Put(ctx context.Context, req *PutRequest) error
}

// ListError means the remote baseline could not be fetched completely.
// Diffing against a partial listing is never safe, so this is fatal.
type ListError struct {
	Bucket string
	Prefix string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list s3://%s/%s: %v", e.Bucket, e.Prefix, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}
