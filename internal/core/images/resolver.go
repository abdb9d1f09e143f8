package images

import (
	"context"
	"fmt"
	"strconv"
	"time"

	platformPort "fundsync/internal/ports/platform"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

const (
	cloudBaseURL = "https://res.cloudinary.com/everydotorg/image/upload"

	logoWidth     = 256
	logoKeyPrefix = "logo:"

	// the platform needs a grace period before an uploaded asset resolves;
	// caching the URL earlier hands out dead links.
	defaultUploadGrace = 3000 * time.Millisecond
)

// coverTiers are the responsive width classes, ascending.
var coverTiers = []int{640, 1200}

// Resolver maps a content-delivery id and width class to a stable
// platform-hosted URL, uploading and caching per resolution.
type Resolver struct {
	KV     storePort.KV
	Media  platformPort.MediaService
	Logger *zap.Logger

	// Grace is how long to wait after an upload before trusting the URL.
	Grace time.Duration
}

func NewResolver(kv storePort.KV, media platformPort.MediaService, logger *zap.Logger) *Resolver {
	return &Resolver{
		KV:     kv,
		Media:  media,
		Logger: logger,
		Grace:  defaultUploadGrace,
	}
}

// SourceURL builds the upstream CDN URL for a content id at the given width.
func SourceURL(contentID string, width int) string {
	return fmt.Sprintf("%s/c_fill,w_%d/%s", cloudBaseURL, width, contentID)
}

// LargestTier بزرگ‌ترین width class موجود
func LargestTier() int {
	return coverTiers[len(coverTiers)-1]
}

func tierKey(contentID string, width int) string {
	return contentID + ":" + strconv.Itoa(width)
}

// GetLogoURL returns the hosted logo URL for a content id, uploading on cache
// miss. Returns "" when the upload never succeeded.
func (r *Resolver) GetLogoURL(ctx context.Context, contentID string) (string, error) {
	key := logoKeyPrefix + contentID
	cached, err := r.KV.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get cached logo url: %w", err)
	}
	if cached != "" {
		return cached, nil
	}
	return r.uploadAndCache(ctx, key, SourceURL(contentID, logoWidth))
}

// GetImageURL ensures every tier is cached, then returns the smallest tier
// whose width covers viewportWidth (largest tier as fallback). One tier's
// upload failure never aborts the others.
func (r *Resolver) GetImageURL(ctx context.Context, contentID string, viewportWidth int) (string, error) {
	for _, width := range coverTiers {
		key := tierKey(contentID, width)
		cached, err := r.KV.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("get cached image url: %w", err)
		}
		if cached != "" {
			continue
		}
		if _, err := r.uploadAndCache(ctx, key, SourceURL(contentID, width)); err != nil {
			r.Logger.Warn("⚠️ Could not upload image tier",
				zap.String("contentID", contentID),
				zap.Int("width", width),
				zap.Error(err))
		}
	}

	selected := coverTiers[len(coverTiers)-1]
	for _, width := range coverTiers {
		if width >= viewportWidth {
			selected = width
			break
		}
	}
	url, err := r.KV.Get(ctx, tierKey(contentID, selected))
	if err != nil {
		return "", fmt.Errorf("get selected tier url: %w", err)
	}
	return url, nil
}

// UploadFresh uploads the content at the given width without consulting the
// cache, overwriting whatever entry was there. Used by the image-validity job
// when a cached URL turned out stale.
func (r *Resolver) UploadFresh(ctx context.Context, contentID string, width int) (string, error) {
	return r.uploadAndCache(ctx, tierKey(contentID, width), SourceURL(contentID, width))
}

// uploadAndCache waits out the grace period before caching; the cache write
// must never precede it.
func (r *Resolver) uploadAndCache(ctx context.Context, key, sourceURL string) (string, error) {
	asset, err := r.Media.UploadFromURL(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", sourceURL, err)
	}

	time.Sleep(r.Grace)

	if err := r.KV.Set(ctx, key, asset.HostedURL); err != nil {
		return "", fmt.Errorf("cache hosted url: %w", err)
	}
	return asset.HostedURL, nil
}
