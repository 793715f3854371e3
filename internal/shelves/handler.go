package shelves

import (
	"net/http"
	"strconv"
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
	rg.GET("/shelves", h.list)
	rg.POST("/shelves", h.create)
	rg.GET("/shelves/:shelf_id/editions", h.editions)
	rg.POST("/shelves/:shelf_id/add_edition", h.addEdition)
	rg.DELETE("/shelves/:shelf_id/remove_edition", h.removeEdition)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createReq struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 1-100 chars"})
		return
	}

	shelf, err := h.Repo.Create(c.Request.Context(), claims.UserID, req.Name, req.Private)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, shelf)
}

func (h *Handler) editions(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shelf, ok := h.ownedShelf(c, claims.UserID)
	if !ok {
		return
	}

	limit := parseInt(c.Query("limit"), 200)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.Editions(c.Request.Context(), shelf.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

type addEditionReq struct {
	EditionID string `json:"edition_id"`
}

func (h *Handler) addEdition(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shelf, ok := h.ownedShelf(c, claims.UserID)
	if !ok {
		return
	}

	var req addEditionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	editionID := strings.TrimSpace(req.EditionID)
	if editionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edition_id required"})
		return
	}

	if err := h.Repo.AddEdition(c.Request.Context(), shelf.ID, editionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if h.Hub != nil {
		ev := synchub.ShelfEvent{
			Type:      synchub.EventShelfAdd,
			UserID:    claims.UserID,
			ShelfID:   shelf.ID,
			EditionID: editionID,
			At:        time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"shelf_id": shelf.ID, "edition_id": editionID})
}

func (h *Handler) removeEdition(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shelf, ok := h.ownedShelf(c, claims.UserID)
	if !ok {
		return
	}

	editionID := strings.TrimSpace(c.Query("edition_id"))
	if editionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edition_id required"})
		return
	}

	removed, err := h.Repo.RemoveEdition(c.Request.Context(), shelf.ID, editionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not on shelf"})
		return
	}

	if h.Hub != nil {
		ev := synchub.ShelfEvent{
			Type:      synchub.EventShelfRemove,
			UserID:    claims.UserID,
			ShelfID:   shelf.ID,
			EditionID: editionID,
			At:        time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// ownedShelf resolves :shelf_id and enforces ownership, writing the
// error response itself when the lookup fails.
func (h *Handler) ownedShelf(c *gin.Context, userID string) (*models.Shelf, bool) {
	shelfID := strings.TrimSpace(c.Param("shelf_id"))
	if shelfID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shelf_id required"})
		return nil, false
	}

	shelf, err := h.Repo.GetOwned(c.Request.Context(), userID, shelfID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}
	if shelf == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shelf not found"})
		return nil, false
	}
	return shelf, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
