package httpapi

import (
	"errors"
	"net/http"

	"fundsync/internal/core/posting"
	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"

	"github.com/gin-gonic/gin"
)

type PostController struct {
	pc PostingUseCase
	sc NonprofitSearchUseCase
}

func NewPostController(pc PostingUseCase, sc NonprofitSearchUseCase) *PostController {
	return &PostController{pc: pc, sc: sc}
}

type submitPostRequest struct {
	Subreddit    string                      `json:"subreddit" binding:"required"`
	FundraiserID string                      `json:"fundraiserId"`
	Create       *donationPort.CreateRequest `json:"create"`
	Nonprofit    *donationPort.Nonprofit     `json:"nonprofit"`
	Form         record.FormFields           `json:"formFields"`
}

func (ctl *PostController) SubmitPost(c *gin.Context) {
	var req submitPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	post, err := ctl.pc.SubmitPost(c.Request.Context(), &posting.SubmitRequest{
		Subreddit:            req.Subreddit,
		ExistingFundraiserID: req.FundraiserID,
		Create:               req.Create,
		Nonprofit:            req.Nonprofit,
		Form:                 req.Form,
	})
	// short messages only; diagnostics stay in the logs
	switch {
	case errors.Is(err, posting.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "a fundraiser id or creation fields are required"})
		return
	case errors.Is(err, donationPort.ErrMissingAPIKey):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "donation platform api key is not configured"})
		return
	case errors.Is(err, donationPort.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "fundraiser not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create fundraiser post"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (ctl *PostController) SearchNonprofits(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	nonprofits, err := ctl.sc.SearchNonprofits(c.Request.Context(), query)
	if errors.Is(err, donationPort.ErrMissingAPIKey) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "donation platform api key is not configured"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search nonprofits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonprofits": nonprofits})
}
