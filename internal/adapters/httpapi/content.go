package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"heritagecore/internal/blob"
	"heritagecore/pkg/domain"

	"github.com/gin-gonic/gin"
)

type itemRequest struct {
	Title       string           `json:"title"       binding:"required"`
	Description string           `json:"description"`
	Type        domain.MediaType `json:"type"        binding:"required"`
	URL         string           `json:"url"`
	Village     string           `json:"village"     binding:"required"`
}

func (r itemRequest) item(id string) domain.HeritageItem {
	return domain.HeritageItem{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		URL:         r.URL,
		Village:     r.Village,
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleGallery(c *gin.Context) {
	items, err := deviceOf(c).Gallery(c.Request.Context(), sessionOf(c), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) handleChat(c *gin.Context) {
	village, msgs, err := deviceOf(c).Chat(c.Request.Context(), sessionOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"village": village, "messages": msgs})
}

func (h *Handler) handlePostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	msg, posted, err := deviceOf(c).PostMessage(c.Request.Context(), sessionOf(c), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !posted {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) handleSearchItems(c *gin.Context) {
	items, err := h.svc.SearchItems(c.Request.Context(), sessionOf(c), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) handleCreateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	item, res, err := h.svc.CreateItem(c.Request.Context(), sessionOf(c), req.item(""))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "violations": res.Violations})
}

func (h *Handler) handleUpdateItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	item, outcome, res, err := h.svc.UpdateItem(c.Request.Context(), sessionOf(c), req.item(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !outcome.Found() {
		c.JSON(http.StatusNotFound, gin.H{"outcome": outcome})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "outcome": outcome, "violations": res.Violations})
}

func (h *Handler) handleDeleteItem(c *gin.Context) {
	outcome, _, err := h.svc.DeleteItem(c.Request.Context(), sessionOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !outcome.Found() {
		c.JSON(http.StatusNotFound, gin.H{"outcome": outcome})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleUploadMedia(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "multipart field \"file\" is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()
	item, upload, err := h.svc.UploadMedia(c.Request.Context(), sessionOf(c), c.Param("id"), header.Filename, file)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"item":        item,
		"key":         upload.Object.Key,
		"url":         upload.URL,
		"link":        upload.Link,
		"contentType": upload.ContentType,
		"size":        upload.Object.Size,
		"replaced":    upload.Replaced,
	})
}

// handleMedia redirects to a fresh presigned link when the driver can sign,
// and streams the object otherwise.
func (h *Handler) handleMedia(c *gin.Context) {
	lib := h.svc.Media()
	if lib == nil {
		writeError(c, http.StatusNotFound, codeNotFound, "media is not configured")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	link, err := lib.Presign(c.Request.Context(), key)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, link)
		return
	case !errors.Is(err, blob.ErrUnsupported):
		h.fail(c, err)
		return
	}
	info, body, err := lib.Open(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer body.Close()
	headers := map[string]string{}
	if info.ETag != "" {
		headers["ETag"] = `"` + info.ETag + `"`
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, body, headers)
}
