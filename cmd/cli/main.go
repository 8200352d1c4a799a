package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bigredeye/deposit/pkg/client/deposit"
)

var log *zap.Logger

var (
	endpoint   string
	configPath string

	rootCmd = &cobra.Command{
		Use:   "deposit",
		Short: "Deposit service client",
	}

	defendCmd = &cobra.Command{
		Use:   "defend",
		Short: "Manage defend tokens",
	}

	assignmentCmd = &cobra.Command{
		Use:   "assignment",
		Short: "Manage assignment records",
	}
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func unwrap[T any](value T, err error) T {
	check(err)
	return value
}

func newClient() *deposit.Client {
	return deposit.NewClient(endpoint, os.Getenv("DEPOSIT_TOKEN"))
}

func initLogging() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.ConsoleSeparator = " "
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.StampMilli)
	log = unwrap(config.Build())
}

func initCommands() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8080/api/deposit", "Deposit API base URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the server config")

	defendCmd.AddCommand(makeDefendCommand("use", "Use a defend token", (*deposit.Client).UseDefend))
	defendCmd.AddCommand(makeDefendCommand("add", "Grant a defend token", (*deposit.Client).AddDefend))
	defendCmd.AddCommand(makeDefendCommand("delete", "Remove a defend token", (*deposit.Client).DeleteDefend))

	assignmentCmd.AddCommand(makeInsertAssignmentCommand())
	assignmentCmd.AddCommand(makeUpdateAssignmentCommand())

	rootCmd.AddCommand(makeShowCommand())
	rootCmd.AddCommand(defendCmd)
	rootCmd.AddCommand(assignmentCmd)
	rootCmd.AddCommand(makeTokenCommand())
	rootCmd.AddCommand(makeUserCommand())
}

func init() {
	initLogging()
	initCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %s", err.Error())
		os.Exit(1)
	}
}
