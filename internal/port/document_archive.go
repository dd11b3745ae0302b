package port

import (
	"context"
	"io"
	"time"
)

// ArchivedDocument is a document payload to keep for the life of its session.
type ArchivedDocument struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	SHA256      string
}

// DocumentArchive stores copies of uploaded documents. The implementation
// owns the bucket or container.
type DocumentArchive interface {
	Put(ctx context.Context, doc ArchivedDocument) error
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
