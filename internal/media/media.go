package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"wedding-site/internal/models"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("upload is too large")
)

// Store keeps uploaded backgrounds and returns the URL they are served from
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Locator is implemented by stores whose URLs share a common prefix
type Locator interface {
	BaseURL() string
}

// KeyOf returns the key of an object the store handed out as url
func KeyOf(store Store, url string) (string, bool) {
	l, ok := store.(Locator)
	if !ok {
		return "", false
	}
	return KeyFromURL(l.BaseURL(), url)
}

// KindOf maps a content type to the kind of background it renders as
func KindOf(contentType string) (models.MediaKind, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return models.MediaNone, fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.MediaImage, nil
	case strings.HasPrefix(mediaType, "video/"):
		return models.MediaVideo, nil
	}
	return models.MediaNone, fmt.Errorf("%w: %q", ErrUnsupportedMedia, mediaType)
}

// ObjectKey builds a unique key under prefix that keeps the file extension
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return path.Join(prefix, uuid.NewString()+ext)
}

// KeyFromURL recovers the key of an object served under baseURL. It returns
// false for URLs this store did not produce.
func KeyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// LimitReader fails with ErrTooLarge once more than max bytes were read
func LimitReader(r io.Reader, max int64) io.Reader {
	return &limitedReader{r: r, left: max}
}

type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
