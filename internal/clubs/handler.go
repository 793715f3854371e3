package clubs

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shelfsync/internal/auth"
	synchub "shelfsync/internal/sync"
	"shelfsync/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *synchub.Hub
}

func NewHandler(repo *Repo, hub *synchub.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/clubs/:club_id/progress", h.get)
	rg.POST("/clubs/:club_id/progress/update", h.update)
}

func (h *Handler) get(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	clubID := strings.TrimSpace(c.Param("club_id"))
	editionID := strings.TrimSpace(c.Query("edition_id"))
	if clubID == "" || editionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "club_id and edition_id required"})
		return
	}

	p, err := h.Repo.Get(c.Request.Context(), clubID, editionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		// no record yet is a valid state, not an error
		p = &models.ReadingProgress{
			ClubID:    clubID,
			EditionID: editionID,
			UserID:    claims.UserID,
			Status:    models.StatusNotStarted,
		}
	}
	c.JSON(http.StatusOK, p)
}

type updateReq struct {
	EditionID   string `json:"edition_id"`
	Status      string `json:"status"`
	CurrentPage int    `json:"current_page"`
	TotalPages  *int   `json:"total_pages,omitempty"`
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	clubID := strings.TrimSpace(c.Param("club_id"))
	if clubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "club_id required"})
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	editionID := strings.TrimSpace(req.EditionID)
	if editionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edition_id required"})
		return
	}
	status := models.ParseReadingStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "status must be one of: not_started, reading, on_hold, completed",
		})
		return
	}
	if req.CurrentPage < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current_page must be >= 0"})
		return
	}
	if req.TotalPages != nil && *req.TotalPages <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total_pages must be > 0"})
		return
	}

	p := models.ReadingProgress{
		ClubID:      clubID,
		EditionID:   editionID,
		UserID:      claims.UserID,
		Status:      status,
		CurrentPage: req.CurrentPage,
		TotalPages:  req.TotalPages,
	}
	if err := h.Repo.Upsert(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), clubID, editionID, claims.UserID)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	if h.Hub != nil {
		ev := synchub.ProgressEvent{
			Type:        synchub.EventProgressWrite,
			UserID:      claims.UserID,
			ClubID:      clubID,
			EditionID:   editionID,
			Status:      string(saved.Status),
			CurrentPage: saved.CurrentPage,
			At:          time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, saved)
}
