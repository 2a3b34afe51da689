package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/docs"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
)

// ListDocs handles GET /api/docs
func (h *Handlers) ListDocs(c *gin.Context) {
	list, err := h.Docs.List()
	if err != nil {
		h.Log.Error("Failed to list docs", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetDoc handles GET /api/docs/:slug
// It returns the document as HTML together with its outline as a mind map.
func (h *Handlers) GetDoc(c *gin.Context) {
	// 1. --- Find Document ---
	doc, err := h.Docs.Find(c.Param("slug"))
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Document not found")
			return
		}
		h.Log.Error("Failed to find doc", "slug", c.Param("slug"), "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to load document")
		return
	}

	// 2. --- Read & Render ---
	body, err := h.Docs.Read(doc)
	if err != nil {
		h.Log.Error("Failed to read doc", "slug", doc.Slug, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to load document")
		return
	}
	html, err := h.Docs.RenderHTML(body)
	if err != nil {
		h.Log.Error("Failed to render doc", "slug", doc.Slug, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to render document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug":    doc.Slug,
		"title":   doc.Title,
		"html":    html,
		"outline": mindmap.Render(h.Builder.Build(body)),
	})
}
