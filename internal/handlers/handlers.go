package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/ai"
	"github.com/01moynul/renovation-mindmap/internal/config"
	"github.com/01moynul/renovation-mindmap/internal/docs"
	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/middleware"
	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

// NodeRepository is the read side of the nodes table.
type NodeRepository interface {
	ListRecords(ctx context.Context) ([]models.FlatRecord, error)
}

// UserRepository is the users table.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenService issues and checks login tokens.
type TokenService interface {
	GenerateToken(userID int64) (string, error)
	ValidateToken(token string) (int64, error)
}

// Explainer produces an AI explanation of a node.
type Explainer interface {
	ExplainNode(ctx context.Context, node *models.TreeNode, lookup ai.NodeLookup) (string, int, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Config  *config.Config
	Log     *logger.Logger
	Builder *mindmap.Builder
	Nodes   NodeRepository // nil when DATA_SOURCE=csv
	Users   UserRepository
	Tokens  TokenService
	Docs    *docs.Library
	AI      Explainer // nil when GEMINI_API_KEY is unset
}

// loadRecords reads the flat rows from the configured source.
func (h *Handlers) loadRecords(ctx context.Context) ([]models.FlatRecord, error) {
	if h.Config.DataSource == config.SourceCSV || h.Nodes == nil {
		f, err := os.Open(h.Config.CSVPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return mindmap.ReadCSV(f)
	}
	return h.Nodes.ListRecords(ctx)
}

// currentTree builds the mind map from the configured source. A source that
// cannot be read is logged and the sample tree is served instead.
func (h *Handlers) currentTree(ctx context.Context) mindmap.Tree {
	records, err := h.loadRecords(ctx)
	if err != nil {
		h.Log.Error("Failed to load mind map records", "source", h.Config.DataSource, "error", err)
		return h.Builder.Build(nil)
	}
	return h.Builder.Build(records)
}

// isPremiumCaller reports whether the request carries a token of a premium user.
func (h *Handlers) isPremiumCaller(c *gin.Context) bool {
	userID, ok := middleware.UserID(c)
	if !ok || h.Users == nil {
		return false
	}
	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	return user.IsPremium
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// Ping answers the health check.
func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong!"})
}
