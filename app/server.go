package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"eliteexplore/config"
	"eliteexplore/database"
	"eliteexplore/handlers"
	"eliteexplore/middleware"
	"eliteexplore/routes"
	"eliteexplore/websocket"
)

const shutdownTimeout = 10 * time.Second

func provideRouter(
	cfg *config.Config,
	h *handlers.Handler,
	tokens *middleware.Tokens,
	limiter *middleware.IPRateLimiter,
	hub *websocket.Hub,
	c *database.Collections,
	log *zap.Logger,
) *gin.Engine {
	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return routes.SetupRouter(routes.Options{
		Handler:     h,
		Tokens:      tokens,
		Users:       c.Users,
		Limiter:     limiter,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})
}

func newServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// startServer binds the port during start so a taken port fails startup,
// then serves in the background until fx stops the app.
func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := newServer(cfg, engine)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}

			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr), zap.Bool("release", cfg.Release()))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("forced shutdown", zap.Error(err))
				return err
			}
			log.Info("http server stopped gracefully")
			return nil
		},
	})
}
