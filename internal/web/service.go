package web

import (
	"github.com/bigredeye/deposit/internal/config"
	"go.uber.org/zap"
)

type webService struct {
	server *server
	config *config.Config
	log    *zap.Logger
}
