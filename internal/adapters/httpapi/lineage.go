package httpapi

import (
	"net/http"

	"heritagecore/pkg/domain"

	"github.com/gin-gonic/gin"
)

type ancestorRequest struct {
	Name    string `json:"name"    binding:"required"`
	Village string `json:"village" binding:"required"`
}

func (h *Handler) handleLineage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"slots":   domain.RelationKeys(),
		"lineage": deviceOf(c).Lineage(c.Request.Context()),
	})
}

func (h *Handler) handleSetLineageSlot(c *gin.Context) {
	var req ancestorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	key := domain.RelationKey(c.Param("relation"))
	record, err := deviceOf(c).SetLineageSlot(c.Request.Context(), key, req.Name, req.Village)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ancestor": record[key], "lineage": record})
}
