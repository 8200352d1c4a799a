package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/api"
	"github.com/bigredeye/deposit/pkg/client/deposit"
)

func makeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show USER",
		Short: "Show user deposit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().LoadDeposit(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s\tdeposit %d\tdefend tokens %d\n", res.UserID, res.Deposit, res.DefendCount)
			for _, a := range res.Assignments {
				fmt.Printf("  %s\tcheck=%t\tpass=%t\tdefended=%t\tpenalty=%d\n", a.Assignment, a.Check, a.Pass, a.Defended, a.Penalty)
			}
			return nil
		},
	}
}

type defendFunc = func(c *deposit.Client, userID string) (*api.DefendResponse, error)

func makeDefendCommand(use, short string, action defendFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USER",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := action(newClient(), args[0])
			if err != nil {
				return err
			}

			log.Info(res.Message,
				zap.String("user", args[0]),
				zap.Int("deposit", res.Deposit),
				zap.Int("defend_count", res.DefendCount),
			)
			return nil
		},
	}
}
