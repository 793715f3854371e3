// Package shelfd assembles the local shelf server: a faithful,
// self-hosted stand-in for the remote collection the engine
// reconciles against. Integration tests mount the same router on
// httptest servers.
package shelfd

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shelfsync/internal/auth"
	"shelfsync/internal/clubs"
	"shelfsync/internal/shelves"
	synchub "shelfsync/internal/sync"
	"shelfsync/pkg/utils"
)

// NewRouter wires every handler onto a gin engine. hub may be nil when
// no event broadcasting is wanted (tests).
func NewRouter(db *sql.DB, authCfg utils.AuthConfig, hub *synchub.Hub) *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}

	shelfRepo := shelves.NewRepo(db)
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, shelfRepo)
	authHandler.RegisterRoutes(router.Group("/auth"))

	if hub != nil {
		router.GET("/ws", synchub.WSHandler(hub))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		resp := gin.H{"status": "ready", "db": "ok"}
		if hub != nil {
			resp["ws_clients"] = hub.Count()
		}
		c.JSON(http.StatusOK, resp)
	})

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
		})
	})

	shelfHandler := shelves.NewHandler(shelfRepo, hub)
	shelfHandler.RegisterRoutes(protected)

	clubRepo := clubs.NewRepo(db)
	clubHandler := clubs.NewHandler(clubRepo, hub)
	clubHandler.RegisterRoutes(protected)

	return router
}

// DefaultAuthConfig is what tests use: fixed secret, short TTL.
func DefaultAuthConfig() utils.AuthConfig {
	return utils.AuthConfig{
		JWTSecret:   "test-secret",
		JWTIssuer:   "shelfd-test",
		JWTDuration: time.Hour,
	}
}
