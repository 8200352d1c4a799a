package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/internal/config"
	"github.com/bigredeye/deposit/internal/web"
	zlog "github.com/bigredeye/deposit/pkg/log"
)

var configPath = flag.String("config", "", "Path to the config file")

func initLogger(conf *config.Config) *zap.Logger {
	switch {
	case conf.Log.File != "":
		return zlog.InitFile(conf.Log.File)
	case conf.Log.Production:
		return zlog.InitProd()
	default:
		return zlog.InitDev()
	}
}

// @title                       Deposit API
// @BasePath                    /api/deposit
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func run() error {
	flag.Parse()

	conf, err := config.ParseConfig(*configPath)
	if err != nil {
		return err
	}

	logger := initLogger(conf)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return web.Run(ctx, conf, logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
