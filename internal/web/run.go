package web

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigredeye/deposit/internal/auth"
	"github.com/bigredeye/deposit/internal/config"
	"github.com/bigredeye/deposit/internal/database"
	"github.com/bigredeye/deposit/internal/deposit"
	"github.com/bigredeye/deposit/internal/tgbot"
)

func policy(config *config.Config) deposit.Policy {
	return deposit.Policy{
		Initial:        config.Deposit.Initial,
		DefendTokens:   config.Deposit.DefendTokens,
		MissingPenalty: config.Penalties.Missing,
		LackingPenalty: config.Penalties.Lacking,
	}
}

func Run(ctx context.Context, config *config.Config, logger *zap.Logger) error {
	db, err := database.OpenDataBase(logger, config.DataBaseDSN(), config.DataBase.ConnectRetries)
	if err != nil {
		return errors.Wrap(err, "Failed to open database")
	}

	var notifier deposit.Notifier
	var bot *tgbot.Bot
	if config.Telegram.BotToken != "" {
		bot, err = tgbot.NewBot(config, logger, db)
		if err != nil {
			return errors.Wrap(err, "Failed to start telegram bot")
		}
		notifier = bot
	}

	authenticator := auth.NewAuthenticator([]byte(config.Auth.SigningKey), db, config.Auth.RoleCacheTTL, logger)
	defer authenticator.Stop()

	deposits := deposit.NewService(db, policy(config), notifier, logger)
	s := newServer(config, logger, authenticator, deposits)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(s.run(ctx), "Server failed")
	})
	if bot != nil {
		g.Go(func() error {
			bot.Run(ctx)
			return nil
		})
	}
	return g.Wait()
}
