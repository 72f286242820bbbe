package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gedgraph/backend/internal/gedcom"
	"gedgraph/backend/internal/person"
	"gedgraph/backend/internal/services"
	apperrors "gedgraph/backend/pkg/errors"
)

// defaults fill in request parameters the client leaves out.
type defaults struct {
	Radius int
	Edges  person.EdgeMask
	Depth  int
}

func newRouter(session *services.Session, def defaults, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		api.GET("/summary", func(c *gin.Context) {
			c.JSON(http.StatusOK, session.Summary())
		})

		// Expand the crowd around seed ids
		api.POST("/crawl", func(c *gin.Context) {
			var req struct {
				Seeds  []string `json:"seeds" binding:"required"`
				Radius int      `json:"radius"`
				Edges  []string `json:"edges"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			radius := req.Radius
			if radius == 0 {
				radius = def.Radius
			}
			mask := def.Edges
			if req.Edges != nil {
				var err error
				if mask, err = person.ParseEdgeMask(req.Edges); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}

			stats, err := session.Crawl(c.Request.Context(), req.Seeds, radius, mask)
			if err != nil {
				respondError(c, log, "Crawl failed", err)
				return
			}
			c.JSON(http.StatusOK, stats)
		})

		api.GET("/people/:id", func(c *gin.Context) {
			p, ok := session.Person(c.Param("id"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Person not found"})
				return
			}
			c.JSON(http.StatusOK, p)
		})

		api.GET("/ancestors/:id", func(c *gin.Context) {
			depth := def.Depth
			if raw := c.Query("depth"); raw != "" {
				d, err := strconv.Atoi(raw)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be a number"})
					return
				}
				depth = d
			}

			tree, err := session.Ancestors(c.Request.Context(), c.Param("id"), depth)
			if err != nil {
				respondError(c, log, "Ancestor build failed", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"last":      tree.Last(),
				"ancestors": tree.Slots(),
			})
		})

		api.GET("/families", func(c *gin.Context) {
			families := session.Families()
			out := make([]gin.H, 0, len(families))
			for _, f := range families {
				out = append(out, gin.H{
					"key":            f.Key,
					"husband":        f.Husband,
					"wife":           f.Wife,
					"children":       f.ChildIDs(),
					"marriage_date":  f.MarriageDate,
					"marriage_place": f.MarriagePlace,
				})
			}
			c.JSON(http.StatusOK, out)
		})

		api.GET("/gedcom", func(c *gin.Context) {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Content-Disposition", `attachment; filename="crowd.ged"`)
			c.Status(http.StatusOK)
			if err := session.WriteGEDCOM(c.Writer, gedcom.Options{Date: time.Now()}); err != nil {
				// Headers are gone; all that is left is to log.
				log.Error("GEDCOM export failed", zap.Error(err))
			}
		})

		api.POST("/store/save", func(c *gin.Context) {
			if err := session.Save(); err != nil {
				respondError(c, log, "Failed to save crowd", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "saved"})
		})

		api.POST("/graph/sync", func(c *gin.Context) {
			synced, err := session.Sync(c.Request.Context())
			if err != nil {
				respondError(c, log, "Graph sync failed", err)
				return
			}
			if !synced {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph mirror not configured"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "synced", "snapshot": session.Summary().Snapshot})
		})
	}

	return router
}

// respondError maps error kinds onto HTTP statuses.
func respondError(c *gin.Context, log *zap.Logger, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeArgument):
		status = http.StatusBadRequest
	case apperrors.IsErrorType(err, apperrors.ErrorTypeMerge):
		status = http.StatusConflict
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		status = http.StatusGatewayTimeout
	case apperrors.IsRetryable(err):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		log.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
