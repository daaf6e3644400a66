package inventory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trekbook/internal/api"
	"trekbook/internal/logger"
)

type Handler struct {
	repo Reader
}

func NewHandler(repo Reader) *Handler {
	return &Handler{repo: repo}
}

// GetBatch godoc
// @Summary      Get batch availability
// @Description  Returns a scheduled batch with its remaining seats and availability badge.
// @Tags         batches
// @Security     BearerAuth
// @Produce      json
// @Param        batchID  path      int  true  "Batch ID"
// @Success      200      {object}  BatchWithAvailability
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /batches/{batchID} [get]
func (h *Handler) GetBatch(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("batchID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid batch ID"})
		return
	}

	batch, err := h.repo.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Batch not found"})
			return
		}
		logger.Error("failed to load batch", "batch_id", batchID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch batch"})
		return
	}

	c.JSON(http.StatusOK, WithAvailability(*batch))
}

// ListTrekBatches godoc
// @Summary      List batches of a trek
// @Description  Returns batches of a trek ordered by start date. Pass upcoming=false to include past batches.
// @Tags         batches
// @Security     BearerAuth
// @Produce      json
// @Param        trekID    path      int   true   "Trek ID"
// @Param        upcoming  query     bool  false  "Only future batches (default true)"
// @Success      200       {array}   BatchWithAvailability
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /treks/{trekID}/batches [get]
func (h *Handler) ListTrekBatches(c *gin.Context) {
	trekID, err := strconv.Atoi(c.Param("trekID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid trek ID"})
		return
	}

	onlyFuture := c.DefaultQuery("upcoming", "true") != "false"

	batches, err := h.repo.ListBatchesByTrek(c.Request.Context(), trekID, onlyFuture)
	if err != nil {
		logger.Error("failed to list batches", "trek_id", trekID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch batches"})
		return
	}

	out := make([]BatchWithAvailability, 0, len(batches))
	for _, b := range batches {
		out = append(out, WithAvailability(b))
	}

	c.JSON(http.StatusOK, out)
}
