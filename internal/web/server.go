package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/internal/auth"
	"github.com/bigredeye/deposit/internal/config"
	"github.com/bigredeye/deposit/internal/deposit"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	config *config.Config
	logger *zap.Logger

	auth     *auth.Authenticator
	deposits *deposit.Service
}

func newServer(
	config *config.Config,
	logger *zap.Logger,
	auth *auth.Authenticator,
	deposits *deposit.Service,
) *server {
	return &server{
		config:   config,
		logger:   logger,
		auth:     auth,
		deposits: deposits,
	}
}

func (s *server) handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+fmt.Sprint(time.Now().Unix()))
	})

	setupDepositService(s, r)

	return r
}

func (s *server) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown server", zap.Error(err))
		}
	}()

	s.logger.Info("Starting server", zap.String("bind_address", s.config.Server.ListenAddress))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
