package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrFontEmpty is returned when a font source yields no bytes.
var ErrFontEmpty = errors.New("font source returned no data")

// FontLoader yields the bytes of the TrueType font used for CJK text.
type FontLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileFontLoader reads the font from disk.
type FileFontLoader struct {
	Path string
}

func (l FileFontLoader) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", l.Path, err)
	}
	if len(data) == 0 {
		return nil, ErrFontEmpty
	}
	return data, nil
}

// HTTPFontLoader downloads the font, e.g. from the static origin that serves the web form.
type HTTPFontLoader struct {
	client *resty.Client
	url    string
}

func NewHTTPFontLoader(url string, timeout time.Duration) *HTTPFontLoader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	return &HTTPFontLoader{client: client, url: url}
}

func (l *HTTPFontLoader) Load(ctx context.Context) ([]byte, error) {
	resp, err := l.client.R().SetContext(ctx).Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch font %s: %w", l.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch font %s: status %d", l.url, resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return nil, ErrFontEmpty
	}
	return resp.Body(), nil
}

// CachedFontLoader keeps the first successful load. Failures are not cached, so a later
// request retries the source.
type CachedFontLoader struct {
	next FontLoader
	mu   sync.Mutex
	data []byte
}

func NewCachedFontLoader(next FontLoader) *CachedFontLoader {
	return &CachedFontLoader{next: next}
}

func (l *CachedFontLoader) Load(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.data != nil {
		return l.data, nil
	}
	data, err := l.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	l.data = data
	return data, nil
}
