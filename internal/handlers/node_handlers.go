package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

const maxMarkdownBytes = 2 << 20

// GetNodes handles GET /api/nodes
// It returns the flat rows of the configured source.
func (h *Handlers) GetNodes(c *gin.Context) {
	// 1. --- Load Rows ---
	records, err := h.loadRecords(c.Request.Context())
	if err != nil {
		h.Log.Error("Failed to load nodes", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to load nodes")
		return
	}

	// 2. --- Premium Gate ---
	if !h.isPremiumCaller(c) {
		redactPremiumRows(records)
	}

	if records == nil {
		records = []models.FlatRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// GetMindMap handles GET /api/mindmap
// It returns the tree in the render shape ({data, children}).
func (h *Handlers) GetMindMap(c *gin.Context) {
	tree := h.currentTree(c.Request.Context())
	rendered := mindmap.Render(tree)
	if !h.isPremiumCaller(c) {
		mindmap.RedactPremium(rendered)
	}
	c.Header("X-Mindmap-Kind", string(tree.Kind))
	c.JSON(http.StatusOK, rendered)
}

// GetMindMapTree handles GET /api/mindmap/tree
// It returns the nested TreeNode shape.
func (h *Handlers) GetMindMapTree(c *gin.Context) {
	tree := h.currentTree(c.Request.Context())
	if !h.isPremiumCaller(c) {
		mindmap.RedactPremiumTree(tree.Flat)
	}
	c.Header("X-Mindmap-Kind", string(tree.Kind))
	c.JSON(http.StatusOK, tree.Flat)
}

// ParseMarkdown handles POST /api/mindmap/markdown
// The body is a Markdown outline; the rendered tree is returned.
func (h *Handlers) ParseMarkdown(c *gin.Context) {
	// 1. --- Read Body ---
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMarkdownBytes+1))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read body")
		return
	}
	if len(body) > maxMarkdownBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "Markdown document too large")
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		abortWithError(c, http.StatusBadRequest, "Markdown body is required")
		return
	}

	// 2. --- Build ---
	tree := h.Builder.Build(string(body))
	c.Header("X-Mindmap-Kind", string(tree.Kind))
	c.JSON(http.StatusOK, mindmap.Render(tree))
}

// ExplainNode handles POST /api/nodes/:id/explain
func (h *Handlers) ExplainNode(c *gin.Context) {
	// 1. --- Check AI Availability ---
	if h.AI == nil {
		abortWithError(c, http.StatusServiceUnavailable, "AI explanations are disabled")
		return
	}

	// 2. --- Parse ID ---
	nodeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid node ID")
		return
	}

	// 3. --- Find Node ---
	// The lookup tool reads the same tree, so premium details are cut first.
	premium := h.isPremiumCaller(c)
	tree := h.currentTree(c.Request.Context())
	if !premium {
		mindmap.RedactPremiumTree(tree.Flat)
	}
	index := make(map[int64]*models.TreeNode)
	mindmap.Walk(tree.Flat, func(n *models.TreeNode, _ int) {
		index[n.NodeID] = n
	})
	node, ok := index[nodeID]
	if !ok {
		abortWithError(c, http.StatusNotFound, "Node not found")
		return
	}
	if node.IsPremium && !premium {
		abortWithError(c, http.StatusForbidden, "Premium node requires a premium account")
		return
	}

	// 4. --- Ask the Model ---
	lookup := func(id int64) (*models.TreeNode, bool) {
		n, ok := index[id]
		return n, ok
	}
	answer, tokens, err := h.AI.ExplainNode(c.Request.Context(), node, lookup)
	if err != nil {
		h.Log.Error("AI explain failed", "node_id", nodeID, "error", err)
		abortWithError(c, http.StatusBadGateway, "AI Service unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nodeId":      nodeID,
		"explanation": answer,
		"tokensUsed":  tokens,
	})
}

// redactPremiumRows applies the premium preview to raw rows. A node is
// premium when the first row of its node_id says so, matching Assemble, so
// every later row of that node is cut too.
func redactPremiumRows(records []models.FlatRecord) {
	premium := make(map[int64]bool)
	for _, rec := range records {
		if rec.NodeID == nil {
			continue
		}
		if _, seen := premium[*rec.NodeID]; !seen {
			premium[*rec.NodeID] = rec.IsPremium != nil && *rec.IsPremium
		}
	}

	for i := range records {
		rec := &records[i]
		if rec.NodeID == nil || !premium[*rec.NodeID] {
			continue
		}
		if rec.Details != nil {
			short := mindmap.Truncate(*rec.Details, mindmap.PremiumPreviewRunes)
			rec.Details = &short
		}
		rec.Image = nil
		rec.ImgURL = nil
	}
}
