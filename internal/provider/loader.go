package provider

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"estimator/internal/config"
)

// NewLoader returns the LoadFunc for the configured provider kind.
func NewLoader(cfg config.ModelConfig) LoadFunc {
	switch cfg.Kind {
	case config.ModelKindRemote:
		return func(ctx context.Context) (Provider, error) {
			zap.L().Info("🔧 Using remote inference service", zap.String("url", cfg.URL))
			c, err := NewRemoteClient(ctx, cfg.URL, cfg.RequestTimeout)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	default:
		downloader := NewDownloader(cfg.DownloadTimeout, cfg.DownloadAttempts)
		return func(ctx context.Context) (Provider, error) {
			a, err := LoadArtifact(ctx, downloader, cfg.URL, cfg.Path)
			if err != nil {
				return nil, err
			}
			return a, nil
		}
	}
}

// LoadArtifact reads the artifact at path, downloading it from url first
// when the file does not exist yet.
func LoadArtifact(ctx context.Context, d *Downloader, url, path string) (*Artifact, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		zap.L().Info("📦 Using cached model artifact", zap.String("path", path))
	case errors.Is(err, fs.ErrNotExist):
		if url == "" {
			return nil, eris.Errorf("provider: artifact %s not found and MODEL_URL is not set", path)
		}
		zap.L().Info("📥 Downloading model artifact", zap.String("url", url), zap.String("path", path))
		if err := d.Fetch(ctx, url, path); err != nil {
			return nil, err
		}
	default:
		return nil, eris.Wrapf(err, "provider: stat artifact %s", path)
	}

	return ReadArtifactFile(path)
}
