package policies

import (
	"context"
	"io"
)

// CreativeStore keeps campaign artwork and returns the URL it is served from.
type CreativeStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
