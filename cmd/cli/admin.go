package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/internal/auth"
	"github.com/bigredeye/deposit/internal/config"
	"github.com/bigredeye/deposit/internal/database"
	"github.com/bigredeye/deposit/internal/models"
)

func makeTokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token USER",
		Short: "Issue a bearer token signed with the server key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = conf.Auth.TokenTTL
			}

			token, err := auth.IssueToken([]byte(conf.Auth.SigningKey), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to Auth.TokenTTL")

	return cmd
}

func makeUserCommand() *cobra.Command {
	var name string
	var admin bool

	cmd := &cobra.Command{
		Use:   "user USER",
		Short: "Create a user or change its role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}
			db, err := database.OpenDataBase(log, conf.DataBaseDSN(), conf.DataBase.ConnectRetries)
			if err != nil {
				return err
			}

			role := models.RoleMember
			if admin {
				role = models.RoleAdmin
			}

			ctx := context.Background()
			user, err := db.AddUser(ctx, &models.User{ID: args[0], Name: name, Role: role})
			if err != nil {
				return err
			}
			if user.Role != role {
				if err = db.SetUserRole(ctx, user.ID, role); err != nil {
					return err
				}
			}

			log.Info("Saved user", zap.String("user", user.ID), zap.String("role", role))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin role")

	return cmd
}
