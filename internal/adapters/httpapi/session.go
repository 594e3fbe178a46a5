package httpapi

import (
	"net/http"

	"heritagecore/pkg/domain"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email   string `json:"email"   binding:"required,email"`
	Name    string `json:"name"    binding:"required"`
	Village string `json:"village" binding:"required"`
}

func (h *Handler) handleVillages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"all": domain.AllVillages, "villages": domain.Villages()})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	session, err := deviceOf(c).Login(c.Request.Context(), req.Email, req.Name, req.Village)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) handleCurrentSession(c *gin.Context) {
	session, ok := deviceOf(c).Session(c.Request.Context())
	if !ok {
		writeError(c, http.StatusUnauthorized, codeUnauthorized, "no active session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) handleLogout(c *gin.Context) {
	if err := deviceOf(c).Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
