package workers

import (
	"context"
	"errors"
	"fmt"

	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"
	realtimePort "fundsync/internal/ports/realtime"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

// DescriptionWorker refreshes cached fundraiser descriptions from upstream
// and pushes a realtime delta when one changed.
type DescriptionWorker struct {
	Store     storePort.CacheStore
	Donation  donationPort.Client
	Publisher realtimePort.Publisher
	KV        storePort.KV
	Logger    *zap.Logger
}

func NewDescriptionWorker(
	store storePort.CacheStore,
	donation donationPort.Client,
	publisher realtimePort.Publisher,
	kv storePort.KV,
	logger *zap.Logger,
) *DescriptionWorker {
	return &DescriptionWorker{
		Store:     store,
		Donation:  donation,
		Publisher: publisher,
		KV:        kv,
		Logger:    logger,
	}
}

// Run one tick over all subscribed posts.
func (w *DescriptionWorker) Run(ctx context.Context) {
	ids, err := w.Store.ListSubscribed(ctx)
	if err != nil {
		w.Logger.Error("❌ Could not list subscribed posts", zap.Error(err))
		return
	}

	for _, postID := range ids {
		if err := w.processPost(ctx, postID); err != nil {
			if errors.Is(err, donationPort.ErrMissingAPIKey) {
				// no key means no post in this tick can succeed
				w.Logger.Error("❌ Donation API key missing, aborting tick", zap.Error(err))
				return
			}
			w.Logger.Error("❌ Description refresh failed", zap.String("postID", postID), zap.Error(err))
		}
	}
}

func (w *DescriptionWorker) processPost(ctx context.Context, postID string) error {
	rec, err := w.Store.Get(ctx, postID)
	if err != nil {
		return err
	}
	if rec == nil {
		w.Logger.Warn("⚠️ No cache record for subscribed post, skipping", zap.String("postID", postID))
		return nil
	}

	info, err := rec.FundraiserInfo()
	if err != nil {
		return fmt.Errorf("cached fundraiser info: %w", err)
	}

	fetched, err := w.Donation.GetFundraiser(ctx, info.ID)
	if err != nil {
		return err
	}

	// strict comparison; upstream formatting is taken as-is
	if fetched.Description == info.Description {
		return nil
	}

	if err := rec.SetProp(record.SlotFundraiserInfo, "description", fetched.Description); err != nil {
		return err
	}
	if err := w.Store.Set(ctx, postID, rec); err != nil {
		return fmt.Errorf("persist updated description: %w", err)
	}

	event := realtimePort.DescriptionEvent{
		PostID:             postID,
		UpdatedDescription: realtimePort.UpdatedDescription{Description: fetched.Description},
	}
	if err := w.Publisher.Publish(ctx, realtimePort.ChannelFundraiserUpdates, event); err != nil {
		w.Logger.Warn("⚠️ Could not publish description update", zap.String("postID", postID), zap.Error(err))
	}
	if _, err := w.KV.IncrBy(ctx, statsUpdatesKey, 1); err != nil {
		w.Logger.Warn("⚠️ Could not bump update counter", zap.Error(err))
	}

	w.Logger.Info("✅ Description updated", zap.String("postID", postID))
	return nil
}
