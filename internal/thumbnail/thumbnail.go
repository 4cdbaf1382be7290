// Package thumbnail turns image URLs found in spreadsheet cells into small
// inline PNG previews.
//
// Derivation is best effort: every failure is reported as an Unavailable
// Result carrying the reason, never as an error to the caller. There is no
// retry and no cache, so a URL repeated across rows is fetched each time.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxImageBytes caps how much of a response body is decoded.
const maxImageBytes = 20 << 20

var (
	ErrNotURL    = errors.New("value is not an http url")
	ErrFetch     = errors.New("image fetch failed")
	ErrBadStatus = errors.New("unexpected response status")
	ErrDecode    = errors.New("image decode failed")
	ErrEncode    = errors.New("image encode failed")
	ErrPanic     = errors.New("thumbnail derivation panicked")
)

// Result is the outcome of one derivation: either a base64 PNG or the
// reason none could be produced.
type Result struct {
	data   string
	reason error
}

// Thumbnail wraps a base64-encoded PNG.
func Thumbnail(data string) Result { return Result{data: data} }

// Unavailable records why no thumbnail was produced.
func Unavailable(reason error) Result { return Result{reason: reason} }

// OK reports whether the result holds an image.
func (r Result) OK() bool { return r.reason == nil && r.data != "" }

// Data returns the base64 PNG, or "" when unavailable.
func (r Result) Data() string { return r.data }

// Reason returns why the thumbnail is unavailable, or nil.
func (r Result) Reason() error { return r.reason }

// Options controls fetching and output size.
type Options struct {
	Width     int
	Height    int
	Quality   int
	Timeout   time.Duration
	UserAgent string
}

// Fetcher derives thumbnails over HTTP.
type Fetcher struct {
	client       *http.Client
	opts         Options
	placeholders *strings.Replacer
}

// New creates a Fetcher. A nil client gets a dedicated one using opts.Timeout.
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client: client,
		opts:   opts,
		placeholders: strings.NewReplacer(
			"($height)", strconv.Itoa(opts.Height),
			"($qualityPercentage)", strconv.Itoa(opts.Quality),
			"($width)", strconv.Itoa(opts.Width),
		),
	}
}

// Eligible reports whether a cell value should be turned into a thumbnail:
// it must be a string containing "http".
func Eligible(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "http")
}

// ExpandURL fills the vendor size and quality placeholders in raw.
func (f *Fetcher) ExpandURL(raw string) string {
	return f.placeholders.Replace(raw)
}

// Derive fetches raw, scales the image to the configured size and returns it
// as a base64 PNG. It never returns an error; failures become Unavailable.
func (f *Fetcher) Derive(ctx context.Context, raw string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Unavailable(fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()

	if !Eligible(raw) {
		return Unavailable(ErrNotURL)
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ExpandURL(raw), nil)
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", ErrFetch, err))
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", ErrFetch, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Unavailable(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}

	src, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", ErrDecode, err))
	}

	encoded, err := f.encode(src)
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", ErrEncode, err))
	}
	return Thumbnail(encoded)
}

// encode scales src to Width x Height with Catmull-Rom resampling and
// returns the PNG bytes as standard base64.
func (f *Fetcher) encode(src image.Image) (string, error) {
	dst := image.NewRGBA(image.Rect(0, 0, f.opts.Width, f.opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
