package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"resume-builder/internal/users"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage bot users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		name, _ := cmd.Flags().GetString("name")

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UsersService.Create(cmd.Context(), users.CreateInput{TelegramID: id, Name: name})
		if err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get <telegram-id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.UsersService.GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(user)
	},
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("telegram id must be a positive integer: %q", raw)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(userCreateCmd, userGetCmd)

	userCreateCmd.Flags().Int64("id", 0, "telegram id of the user")
	userCreateCmd.Flags().String("name", "", "display name")
	_ = userCreateCmd.MarkFlagRequired("id")
	_ = userCreateCmd.MarkFlagRequired("name")
}
