package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	platformPort "fundsync/internal/ports/platform"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

// SummaryWorker composes the daily moderator digest. It never mutates any
// cache record.
type SummaryWorker struct {
	Store     storePort.CacheStore
	Platform  platformPort.PostService
	KV        storePort.KV
	Subreddit string
	Logger    *zap.Logger
}

func NewSummaryWorker(
	store storePort.CacheStore,
	platform platformPort.PostService,
	kv storePort.KV,
	subreddit string,
	logger *zap.Logger,
) *SummaryWorker {
	return &SummaryWorker{
		Store:     store,
		Platform:  platform,
		KV:        kv,
		Subreddit: subreddit,
		Logger:    logger,
	}
}

// Run composes and sends one digest message per tick.
func (w *SummaryWorker) Run(ctx context.Context) {
	ids, err := w.Store.ListSubscribed(ctx)
	if err != nil {
		w.Logger.Error("❌ Could not list subscribed posts", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		// no active fundraisers: skip the send rather than mailing an empty digest
		w.Logger.Info("ℹ️ No active fundraisers, skipping daily summary")
		return
	}

	var lines []string
	for _, postID := range ids {
		rec, err := w.Store.Get(ctx, postID)
		if err != nil || rec == nil {
			w.Logger.Warn("⚠️ Skipping post in summary", zap.String("postID", postID), zap.Error(err))
			continue
		}
		info, err := rec.FundraiserInfo()
		if err != nil {
			w.Logger.Warn("⚠️ Skipping post without fundraiser info", zap.String("postID", postID))
			continue
		}
		var raised int64
		if details, err := rec.FundraiserDetails(); err == nil {
			raised = details.Raised
		}
		lines = append(lines, fmt.Sprintf("post %s | fundraiser %s | raised %d | %s",
			postID, info.ID, raised, rec.LastUpdated().Format(time.RFC3339)))
	}
	if len(lines) == 0 {
		w.Logger.Info("ℹ️ No active fundraisers, skipping daily summary")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fundraiser daily summary for r/%s\n\n", w.Subreddit)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	// appended stat is informational; the counter resets for the next period
	if updates, err := w.KV.IncrBy(ctx, statsUpdatesKey, 0); err == nil && updates > 0 {
		fmt.Fprintf(&b, "\nrealtime updates published since last summary: %d\n", updates)
		if err := w.KV.Del(ctx, statsUpdatesKey); err != nil {
			w.Logger.Warn("⚠️ Could not reset update counter", zap.Error(err))
		}
	}

	subject := fmt.Sprintf("Daily fundraiser summary (%d active)", len(lines))
	if err := w.Platform.SendModeratorMessage(ctx, w.Subreddit, subject, b.String()); err != nil {
		w.Logger.Error("❌ Could not send daily summary", zap.Error(err))
		return
	}
	w.Logger.Info("✅ Daily summary sent", zap.Int("posts", len(lines)))
}
