// Package workers contains the scheduled reconciliation routines. Each worker
// runs to completion once per tick; one post's failure is logged and the loop
// moves on to the next id.
package workers

// نام jobهای زمان‌بندی‌شده
const (
	JobDescriptionRefresh = "refresh_descriptions"
	JobDetailsRefresh     = "refresh_raised_details"
	JobCoverImageCheck    = "validate_cover_images"
	JobDailySummary       = "daily_summary"
)

// statsUpdatesKey counts realtime deltas published since the last daily
// summary; the summary job reads and resets it.
const statsUpdatesKey = "fundraiser:stats:updates"
