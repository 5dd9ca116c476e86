package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Downloader fetches a model artifact over HTTP into a local file.
type Downloader struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// NewDownloader creates a downloader with the given per-attempt timeout.
func NewDownloader(timeout time.Duration, attempts int) *Downloader {
	return &Downloader{
		Client:   &http.Client{Timeout: timeout},
		Attempts: max(attempts, 1),
		Backoff:  time.Second,
	}
}

// statusError is a non-2xx download response.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Fetch downloads url into dest. The file appears atomically: it is written
// next to dest and renamed into place. Transient failures are retried with
// exponential backoff and every retry is logged.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	log := zap.L().With(zap.String("url", url), zap.String("dest", dest))

	attempt := 0
	op := func() error {
		attempt++
		err := d.fetchOnce(ctx, url, dest)
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("model download failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, d.policy(ctx), notify); err != nil {
		return eris.Wrapf(err, "provider: download %s", url)
	}
	log.Info("model artifact downloaded", zap.Int("attempt", attempt))
	return nil
}

// policy doubles the wait from Backoff on each retry, without jitter, for at
// most Attempts tries.
func (d *Downloader) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.Backoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = d.Backoff << 6
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(d.Attempts, 1)-1)), ctx)
}

func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{Code: resp.StatusCode}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// isTransient reports whether a download error is worth another attempt:
// network errors, 429 and 5xx responses.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
