package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type TriggerController struct {
	pc PostingUseCase
	rc RegistrarUseCase
}

func NewTriggerController(pc PostingUseCase, rc RegistrarUseCase) *TriggerController {
	return &TriggerController{pc: pc, rc: rc}
}

// Upgrade handles the platform's install/upgrade trigger: (re)register the
// recurring jobs idempotently.
func (ctl *TriggerController) Upgrade(c *gin.Context) {
	if err := ctl.rc.OnUpgrade(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type postDeletedRequest struct {
	PostID string `json:"postId" binding:"required"`
}

// PostDeleted handles the platform's post-delete trigger: drop the cache
// record and the subscription.
func (ctl *TriggerController) PostDeleted(c *gin.Context) {
	var req postDeletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if err := ctl.pc.OnPostDeleted(c.Request.Context(), req.PostID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clean up post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
