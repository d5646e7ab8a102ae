package handler

import (
	"errors"
	"net/http"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/checklist"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/middleware"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/store"
	"github.com/gin-gonic/gin"
)

type TradeLaneHandler struct {
	lanes     store.TradeLaneStore
	checklist *checklist.Table
}

func NewTradeLaneHandler(lanes store.TradeLaneStore, table *checklist.Table) *TradeLaneHandler {
	return &TradeLaneHandler{lanes: lanes, checklist: table}
}

type CreateTradeLaneRequest struct {
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// List returns the caller's trade lanes, oldest first
func (h *TradeLaneHandler) List(c *gin.Context) {
	lanes, err := h.lanes.ListLanes(c.Request.Context(), middleware.GetUID(c))
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to list trade lanes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trade lanes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lanes": lanes})
}

func (h *TradeLaneHandler) Create(c *gin.Context) {
	var req CreateTradeLaneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to and category are required"})
		return
	}
	if !model.IsKnownCountry(req.From) || !model.IsKnownCountry(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown country"})
		return
	}
	if !model.IsKnownCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	lane, err := h.lanes.AddLane(c.Request.Context(), middleware.GetUID(c), model.TradeLane{
		From:     req.From,
		To:       req.To,
		Category: req.Category,
	})
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to save trade lane", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trade lane"})
		return
	}
	c.JSON(http.StatusCreated, lane)
}

func (h *TradeLaneHandler) Delete(c *gin.Context) {
	err := h.lanes.DeleteLane(c.Request.Context(), middleware.GetUID(c), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trade lane not found"})
		return
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to delete trade lane", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trade lane"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trade lane removed"})
}

// Checklist serves the static lookup for ?from=&to=&category=
func (h *TradeLaneHandler) Checklist(c *gin.Context) {
	from, to, category := c.Query("from"), c.Query("to"), c.Query("category")
	if from == "" || to == "" || category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to and category are required"})
		return
	}
	c.JSON(http.StatusOK, h.checklist.Lookup(from, to, category))
}
