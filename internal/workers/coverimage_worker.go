package workers

import (
	"context"
	"errors"
	"fmt"

	"fundsync/internal/core/images"
	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"
	realtimePort "fundsync/internal/ports/realtime"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

// CoverImageWorker probes cached cover-image URLs and repairs the broken
// ones with a fresh upload.
type CoverImageWorker struct {
	Store     storePort.CacheStore
	Donation  donationPort.Client
	Resolver  *images.Resolver
	Prober    Prober
	Publisher realtimePort.Publisher
	KV        storePort.KV
	Logger    *zap.Logger
}

func NewCoverImageWorker(
	store storePort.CacheStore,
	donation donationPort.Client,
	resolver *images.Resolver,
	prober Prober,
	publisher realtimePort.Publisher,
	kv storePort.KV,
	logger *zap.Logger,
) *CoverImageWorker {
	return &CoverImageWorker{
		Store:     store,
		Donation:  donation,
		Resolver:  resolver,
		Prober:    prober,
		Publisher: publisher,
		KV:        kv,
		Logger:    logger,
	}
}

// Run one tick over all subscribed posts.
func (w *CoverImageWorker) Run(ctx context.Context) {
	ids, err := w.Store.ListSubscribed(ctx)
	if err != nil {
		w.Logger.Error("❌ Could not list subscribed posts", zap.Error(err))
		return
	}

	for _, postID := range ids {
		if err := w.processPost(ctx, postID); err != nil {
			if errors.Is(err, donationPort.ErrMissingAPIKey) {
				w.Logger.Error("❌ Donation API key missing, aborting tick", zap.Error(err))
				return
			}
			w.Logger.Error("❌ Cover image check failed", zap.String("postID", postID), zap.Error(err))
		}
	}
}

func (w *CoverImageWorker) processPost(ctx context.Context, postID string) error {
	rec, err := w.Store.Get(ctx, postID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if !rec.Initialized(record.SlotFundraiserInfo) || !rec.Initialized(record.SlotNonprofitInfo) {
		return nil
	}

	info, err := rec.FundraiserInfo()
	if err != nil {
		return fmt.Errorf("cached fundraiser info: %w", err)
	}
	if info.CoverImageRedditURL == "" {
		// nothing cached, nothing to validate
		return nil
	}

	valid, err := w.Prober.Valid(ctx, info.CoverImageRedditURL)
	if err != nil {
		return fmt.Errorf("probe cover image: %w", err)
	}
	if valid {
		return nil
	}

	w.Logger.Info("🔧 Cached cover image is stale, re-uploading", zap.String("postID", postID))

	fetched, err := w.Donation.GetFundraiser(ctx, info.ID)
	if err != nil {
		return err
	}

	// the old cache entry is known stale, so bypass the resolver's cache check
	hostedURL, err := w.Resolver.UploadFresh(ctx, fetched.CoverImageCloudinaryID, images.LargestTier())
	if err != nil {
		// transient: leave for the next tick, keep the index entry
		w.Logger.Warn("⚠️ Fresh cover upload failed, will retry next tick",
			zap.String("postID", postID), zap.Error(err))
		return nil
	}

	if err := rec.SetProp(record.SlotFundraiserInfo, "coverImageRedditUrl", hostedURL); err != nil {
		return err
	}
	if err := w.Store.Set(ctx, postID, rec); err != nil {
		return fmt.Errorf("persist repaired cover image: %w", err)
	}

	event := realtimePort.CoverImageEvent{
		PostID:            postID,
		UpdatedCoverImage: realtimePort.UpdatedCoverImage{CoverImageRedditURL: hostedURL},
	}
	if err := w.Publisher.Publish(ctx, realtimePort.ChannelFundraiserUpdates, event); err != nil {
		w.Logger.Warn("⚠️ Could not publish cover image update", zap.String("postID", postID), zap.Error(err))
	}
	if _, err := w.KV.IncrBy(ctx, statsUpdatesKey, 1); err != nil {
		w.Logger.Warn("⚠️ Could not bump update counter", zap.Error(err))
	}

	w.Logger.Info("✅ Cover image repaired", zap.String("postID", postID), zap.String("url", hostedURL))
	return nil
}
