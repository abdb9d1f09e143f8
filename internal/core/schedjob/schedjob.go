package schedjob

import (
	"time"

	"github.com/gofrs/uuid"
)

// ScheduledJob رکورد دیتابیس یک job زمان‌بندی‌شده
//
// Rows survive restarts so idempotent registration can reap duplicates left
// behind by a crashed upgrade.
type ScheduledJob struct {
	ID          uuid.UUID  `gorm:"primary_key;type:char(36)"`
	Name        string     `gorm:"type:varchar(100);not null;index"`
	Cron        string     `gorm:"type:varchar(100);not null"`
	Data        string     `gorm:"type:text"` // JSON bag, includes createdAt
	Status      string     `gorm:"type:varchar(20);not null"` // active, cancelled
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	CancelledAt *time.Time `gorm:"index"`
}

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)
