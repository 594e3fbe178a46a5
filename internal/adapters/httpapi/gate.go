package httpapi

import (
	"net/http"

	"heritagecore/pkg/domain"

	"github.com/gin-gonic/gin"
)

type villageRequest struct {
	Village string `json:"village" binding:"required"`
}

type tabRequest struct {
	Tab domain.Tab `json:"tab" binding:"required"`
}

type challengeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleGate(c *gin.Context) {
	c.JSON(http.StatusOK, deviceOf(c).Gate())
}

func (h *Handler) handleSelectVillage(c *gin.Context) {
	var req villageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	snap, err := deviceOf(c).SelectVillage(c.Request.Context(), req.Village)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) handleSelectTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	snap, err := deviceOf(c).SelectTab(c.Request.Context(), req.Tab)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleChallenge submits a code, or reopens the challenge when the body
// carries none.
func (h *Handler) handleChallenge(c *gin.Context) {
	var req challengeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
	}
	d := deviceOf(c)
	if req.Code == "" {
		c.JSON(http.StatusOK, d.RequestChallenge(c.Request.Context()))
		return
	}
	ok, snap, err := d.SubmitChallenge(c.Request.Context(), req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": ok, "gate": snap})
}

func (h *Handler) handleCancelChallenge(c *gin.Context) {
	c.JSON(http.StatusOK, deviceOf(c).CancelChallenge(c.Request.Context()))
}
