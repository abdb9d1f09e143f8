package httpapi

import (
	"context"
	"net/http"

	"fundsync/internal/adapters/httpapi/middleware"
	"fundsync/internal/core/posting"
	donationPort "fundsync/internal/ports/donation"
	platformPort "fundsync/internal/ports/platform"

	"github.com/gin-gonic/gin"
)

// PostingUseCase: اینترفیس لازم برای کنترلر (Inbound Port)
type PostingUseCase interface {
	SubmitPost(ctx context.Context, req *posting.SubmitRequest) (*platformPort.Post, error)
	OnPostDeleted(ctx context.Context, postID string) error
}

type RegistrarUseCase interface {
	OnUpgrade(ctx context.Context) error
}

type NonprofitSearchUseCase interface {
	SearchNonprofits(ctx context.Context, query string) ([]*donationPort.Nonprofit, error)
}

// SetupRoutes فقط روتینگ: UseCaseها از بیرون تزریق می‌شوند
func SetupRoutes(
	postingUC PostingUseCase,
	registrarUC RegistrarUseCase,
	searchUC NonprofitSearchUseCase,
	realtimeHub http.Handler,
	jwtSecret []byte,
) *gin.Engine {
	r := gin.Default()
	pc := NewPostController(postingUC, searchUC)
	tc := NewTriggerController(postingUC, registrarUC)

	auth := middleware.JWTAuthMiddleware(jwtSecret)

	// install/upgrade triggers from the platform
	r.POST("/triggers/install", auth, tc.Upgrade)
	r.POST("/triggers/upgrade", auth, tc.Upgrade)
	r.POST("/triggers/post-deleted", auth, tc.PostDeleted)

	// creation flow
	r.POST("/posts", auth, pc.SubmitPost)
	r.GET("/nonprofits", auth, pc.SearchNonprofits)

	// realtime channel for post viewers
	r.GET("/ws", gin.WrapH(realtimeHub))

	return r
}
