package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/01moynul/renovation-mindmap/internal/handlers"
	"github.com/01moynul/renovation-mindmap/internal/middleware"
)

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(h.Log))

	// --- APPLY THE CORS GUARD ---
	// This must come before any route so preflight requests are answered.
	router.Use(middleware.CORS(h.Config.CORSOrigins))

	// Uploaded attachments are served back under /uploads, always as downloads.
	uploads := router.Group("/uploads")
	uploads.Use(middleware.ForceDownload())
	uploads.Static("/", h.Config.UploadDir)

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", h.Ping)

		// --- Auth Routes (Public) ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// --- Mind Map Routes (token optional, unlocks premium details) ---
		optional := api.Group("/")
		optional.Use(middleware.OptionalAuth(h.Tokens))
		{
			optional.GET("/nodes", h.GetNodes)
			optional.GET("/mindmap", h.GetMindMap)
			optional.GET("/mindmap/tree", h.GetMindMapTree)
		}
		api.POST("/mindmap/markdown", h.ParseMarkdown)

		// --- Docs Routes (Public) ---
		api.GET("/docs", h.ListDocs)
		api.GET("/docs/:slug", h.GetDoc)

		// --- Protected Routes (Login Required) ---
		auth := api.Group("/")
		auth.Use(middleware.AuthMiddleware(h.Tokens))
		{
			auth.GET("/auth/me", h.Me)
			auth.POST("/uploads", h.UploadFile)
			auth.POST("/nodes/:id/explain", h.ExplainNode)
		}
	}

	return router
}
