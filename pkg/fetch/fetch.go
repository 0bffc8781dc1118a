package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/pinfetch/pinfetch/pkg/models"
)

// ErrTooLarge is returned when an image body exceeds the configured limit.
var ErrTooLarge = errors.New("image exceeds size limit")

// Options configures a Downloader.
type Options struct {
	// Concurrency bounds parallel downloads. Values below 2 download sequentially.
	Concurrency int
	// Timeout applies per image. Zero means no client timeout.
	Timeout time.Duration
	// MaxBytes caps each image body. Zero means unlimited.
	MaxBytes int64
}

// Downloader fetches image URLs into a directory as 1.jpg, 2.jpg, ...
type Downloader struct {
	client *http.Client
	opts   Options
	logger *log.Logger
}

// New creates a Downloader.
func New(opts Options, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.Default()
	}
	return &Downloader{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger,
	}
}

// FileName returns the on-disk name of the image at 1-based index.
func FileName(index int) string {
	return strconv.Itoa(index) + ".jpg"
}

// Fetch downloads every URL into dir. The i-th URL is written to FileName(i+1).
// The first failure cancels the remaining downloads and is returned; images
// already written stay on disk for the caller to discard.
func (d *Downloader) Fetch(ctx context.Context, dir string, urls []string) ([]models.CachedImage, error) {
	images := make([]models.CachedImage, len(urls))

	if d.opts.Concurrency < 2 {
		for i, u := range urls {
			img, err := d.fetchOne(ctx, dir, i+1, u)
			if err != nil {
				return nil, err
			}
			images[i] = img
		}
		return images, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			img, err := d.fetchOne(gctx, dir, i+1, u)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (d *Downloader) fetchOne(ctx context.Context, dir string, index int, rawURL string) (models.CachedImage, error) {
	d.logger.Debug("fetching image", "index", index, "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.CachedImage{}, fmt.Errorf("image %d: create request: %w", index, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return models.CachedImage{}, fmt.Errorf("image %d: %w", index, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.CachedImage{}, fmt.Errorf("image %d: upstream returned %d", index, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if d.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, d.opts.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return models.CachedImage{}, fmt.Errorf("image %d: read body: %w", index, err)
	}
	if d.opts.MaxBytes > 0 && int64(len(data)) > d.opts.MaxBytes {
		return models.CachedImage{}, fmt.Errorf("image %d: %w (%s)", index, ErrTooLarge, humanize.Bytes(uint64(d.opts.MaxBytes)))
	}

	name := FileName(index)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return models.CachedImage{}, fmt.Errorf("image %d: write file: %w", index, err)
	}

	img := models.CachedImage{
		Index:     index,
		SourceURL: rawURL,
		Path:      path,
		Size:      int64(len(data)),
		MIME:      mimetype.Detect(data).String(),
	}
	d.logger.Debug("image cached", "index", index, "size", humanize.Bytes(uint64(img.Size)), "mime", img.MIME)
	return img, nil
}
