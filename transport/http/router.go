package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend"
)

func NewRouter(endpoints *contactbook.EndpointSet, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		cors.Default(),
	)

	SetRouter(r, endpoints)
	return r
}

func SetRouter(r *gin.Engine, endpoints *contactbook.EndpointSet) {
	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, message{"Welcome to contact book application"})
	})

	r.GET("/health", CheckHealthHandler(endpoints.CheckHealth))

	users := r.Group("/api/users")
	{
		users.POST("/register", RegisterHandler(endpoints.Register))
		users.POST("/login", LoginHandler(endpoints.Login))
		users.GET("", FindHandler(endpoints.Find))
		users.GET("/", FindHandler(endpoints.Find))
		users.DELETE("", DeleteAllHandler(endpoints.DeleteAll))
		users.DELETE("/", DeleteAllHandler(endpoints.DeleteAll))
		users.GET("/favorite", FindFavoriteHandler(endpoints.FindFavorite))
		users.GET("/:id", FindByIDHandler(endpoints.FindByID))
		users.PUT("/:id", UpdateHandler(endpoints.Update))
		users.DELETE("/:id", DeleteHandler(endpoints.Delete))
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, message{"Resource not found"})
	})
}
