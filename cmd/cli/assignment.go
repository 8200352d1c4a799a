package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/bigredeye/deposit/api"
)

// loadInsertRequests reads a list of assignments:
//
//   - assignment: Assignment 1
//     lackList: [user1, user2]
//     xList: [user3]
func loadInsertRequests(path string) ([]api.AssignmentInsertRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read assignments file")
	}

	requests := []api.AssignmentInsertRequest{}
	if err = yaml.Unmarshal(data, &requests); err != nil {
		return nil, errors.Wrap(err, "Failed to parse assignments file")
	}
	for i := range requests {
		if requests[i].LackList == nil {
			requests[i].LackList = []string{}
		}
		if requests[i].XList == nil {
			requests[i].XList = []string{}
		}
	}
	return requests, nil
}

func makeInsertAssignmentCommand() *cobra.Command {
	var name string
	var file string
	var lack []string
	var missing []string

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Register lacking and missing submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := []api.AssignmentInsertRequest{{
				Assignment: name,
				LackList:   lack,
				XList:      missing,
			}}
			if file != "" {
				var err error
				if requests, err = loadInsertRequests(file); err != nil {
					return err
				}
			}

			client := newClient()
			for i := range requests {
				res, err := client.InsertAssignment(&requests[i])
				if err != nil {
					return errors.Wrapf(err, "Failed to insert %s", requests[i].Assignment)
				}
				log.Info("Inserted assignment",
					zap.String("assignment", requests[i].Assignment),
					zap.Int("updated", res.Updated),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Assignment name")
	cmd.Flags().StringVar(&file, "file", "", "YAML file with assignments")
	cmd.Flags().StringSliceVar(&lack, "lack", []string{}, "Users with lacking submissions")
	cmd.Flags().StringSliceVar(&missing, "x", []string{}, "Users without submissions")

	return cmd
}

func makeUpdateAssignmentCommand() *cobra.Command {
	var name string
	var checked bool
	var passed bool

	cmd := &cobra.Command{
		Use:   "update USER",
		Short: "Update assignment status of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().UpdateAssignment(&api.AssignmentUpdateRequest{
				UserID:     args[0],
				Assignment: name,
				Check:      &checked,
				Pass:       &passed,
			})
			if err != nil {
				return err
			}

			log.Info(res.Message, zap.String("user", args[0]), zap.Int("deposit", res.Deposit))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Assignment name")
	cmd.Flags().BoolVar(&checked, "check", false, "Assignment was submitted")
	cmd.Flags().BoolVar(&passed, "pass", false, "Assignment was accepted")

	return cmd
}
