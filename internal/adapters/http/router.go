package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/adapters/race"
	"github.com/dkeye/Typerace/internal/app"
	"github.com/dkeye/Typerace/internal/auth"
	"github.com/dkeye/Typerace/internal/config"
)

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	authSvc *auth.Service,
	registry *app.Registry,
	ctl *race.Controller,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TyperaceSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.NoRoute(func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.POST("/login", loginHandler(authSvc))

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, registry.List())
	})

	api.GET("/ws/race", func(c *gin.Context) {
		ctl.HandleRace(ctx, c)
	})

	return r
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Auth  bool   `json:"auth"`
	Token string `json:"token,omitempty"`
}

func loginHandler(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing login or password"})
			return
		}

		token, err := authSvc.Issue(req.Login, req.Password)
		if err != nil {
			log.Warn().Str("module", "adapters.http").Str("login", req.Login).Msg("login rejected")
			c.JSON(http.StatusUnauthorized, loginResponse{Auth: false})
			return
		}

		session := sessions.Default(c)
		session.Set("login", req.Login)
		_ = session.Save()

		c.JSON(http.StatusOK, loginResponse{Auth: true, Token: token})
	}
}
