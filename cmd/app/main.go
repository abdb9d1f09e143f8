package main

import (
	"context"
	"os"

	donationadapter "fundsync/internal/adapters/donation"
	"fundsync/internal/adapters/httpapi"
	platformadapter "fundsync/internal/adapters/platform"
	realtimeadapter "fundsync/internal/adapters/realtime"
	redisadapter "fundsync/internal/adapters/redis"
	scheduleradapter "fundsync/internal/adapters/scheduler"
	"fundsync/internal/config"
	"fundsync/internal/core/images"
	"fundsync/internal/core/posting"
	"fundsync/internal/core/registrar"
	"fundsync/internal/core/schedjob"
	"fundsync/internal/workers"

	"go.uber.org/zap"
)

func main() {
	config.InitLogger()
	config.Init() // بارگذاری تنظیمات از .env

	// اتصال به دیتابیس و اجرای مایگریشن‌ها
	config.InitDB()

	if err := config.DB.AutoMigrate(&schedjob.ScheduledJob{}); err != nil {
		config.Logger.Fatal("Error during migrations:", zap.Error(err))
	}
	config.Logger.Info("✅ Database migrations completed")

	// اتصال به Redis
	config.InitRedis()

	// بستن منابع بعد از اتمام کار سرور
	defer closeResources(config.Logger)

	config.Logger.Info("App is running...")

	subreddit := os.Getenv("SUBREDDIT")

	cacheStore := redisadapter.NewCacheStoreRedis(config.RedisClient)                                            // آداپتر خروجی
	kv := redisadapter.NewKVRedis(config.RedisClient)                                                            // آداپتر خروجی
	upgradeLease := redisadapter.NewLeaseRedis(config.RedisClient, "fundsync:upgrade-lease")                     // آداپتر خروجی
	donationClient := donationadapter.NewClient(os.Getenv("DONATION_API_URL"), os.Getenv("DONATION_API_KEY"))    // آداپتر خروجی
	platformClient := platformadapter.NewClient(os.Getenv("PLATFORM_API_URL"), os.Getenv("PLATFORM_API_TOKEN")) // آداپتر خروجی
	hub := realtimeadapter.NewHub(config.Logger)
	resolver := images.NewResolver(kv, platformClient, config.Logger)

	// the four reconciliation workers
	descriptionWorker := workers.NewDescriptionWorker(cacheStore, donationClient, hub, kv, config.Logger)
	detailsWorker := workers.NewDetailsWorker(cacheStore, donationClient, platformClient, hub, kv, config.Logger)
	coverWorker := workers.NewCoverImageWorker(cacheStore, donationClient, resolver, workers.NewHTTPProber(), hub, kv, config.Logger)
	summaryWorker := workers.NewSummaryWorker(cacheStore, platformClient, kv, subreddit, config.Logger)

	cronScheduler := scheduleradapter.NewCronScheduler(config.DB, config.Logger)
	cronScheduler.RegisterHandler(workers.JobDescriptionRefresh, descriptionWorker.Run)
	cronScheduler.RegisterHandler(workers.JobDetailsRefresh, detailsWorker.Run)
	cronScheduler.RegisterHandler(workers.JobCoverImageCheck, coverWorker.Run)
	cronScheduler.RegisterHandler(workers.JobDailySummary, summaryWorker.Run)

	if err := cronScheduler.Start(context.Background()); err != nil {
		config.Logger.Fatal("Scheduler failed to start:", zap.Error(err))
	}
	defer cronScheduler.Stop()

	registrarSvc := registrar.NewService(cronScheduler, upgradeLease, config.Logger)                      // یوزکیس/سرویس
	postingSvc := posting.NewService(cacheStore, donationClient, platformClient, resolver, config.Logger) // یوزکیس/سرویس

	r := httpapi.SetupRoutes(postingSvc, registrarSvc, donationClient, hub, []byte(os.Getenv("JWT_SECRET"))) // تزریق یوزکیس به آداپتر ورودی

	// اجرای سرور Gin (در اینجا سرور به صورت بلوکینگ عمل می‌کند)
	if err := r.Run(":" + os.Getenv("APP_PORT")); err != nil {
		config.Logger.Fatal("Server failed to start:", zap.Error(err))
	}
}

// closeResources بستن اتصالات به Redis و دیتابیس
func closeResources(logger *zap.Logger) {
	if err := config.RedisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection:", zap.Error(err))
	}

	sqlDB, err := config.DB.DB() // گرفتن *sql.DB از *gorm.DB
	if err != nil {
		logger.Error("Error getting raw DB:", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection:", zap.Error(err))
	}
}
