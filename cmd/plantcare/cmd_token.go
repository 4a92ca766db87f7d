package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/plant-care/internal/bootstrap"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Owner token commands",
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for an owner",
	RunE:  runIssueToken,
}

var tokenOwner string

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(issueTokenCmd)
	issueTokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "owner id to embed in the token")
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	owner := strings.TrimSpace(tokenOwner)
	if owner == "" {
		return errors.New("--owner is required")
	}
	return withApp(func(app *bootstrap.App) error {
		token, err := app.Auth().IssueToken(cmd.Context(), owner)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	})
}
