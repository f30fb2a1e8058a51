package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/security"
	"github.com/recipeserver/cloudcmd/internal/session"
	"github.com/recipeserver/cloudcmd/internal/utils"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the recipe server",
	Long: "Sign in and store the access token. On a terminal the password is read without echo;\n" +
		"otherwise it is the next line of stdin.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		username, _ := cmd.Flags().GetString("username")
		raw := cmd.InOrStdin()
		in := bufio.NewReader(raw)
		if username == "" {
			username = utils.Prompt(in, cmd.ErrOrStderr(), "Username")
		}
		src := io.Reader(in)
		if utils.IsTerminal(raw) {
			src = raw
		}
		password, err := utils.PromptPassword(src, cmd.ErrOrStderr(), "Password")
		if err != nil {
			return err
		}
		if username == "" || password == "" {
			return errors.New("username and password are required")
		}

		c, err := newClient(false)
		if err != nil {
			return err
		}
		ctx := context.Background()
		tok, err := c.Login(ctx, username, password)
		if err != nil {
			return err
		}
		s := session.Session{Access: tok.Access, Refresh: tok.Refresh}
		if p, err := c.Authorized(tok.Access).Profile(ctx); err != nil {
			logger.Warn("profile fetch failed", zap.Error(err))
		} else {
			s.Profile = &p
		}
		if err := session.Save(s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := session.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := session.Load()
		if errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
			return nil
		}
		if err != nil {
			return err
		}
		name := "(unknown user)"
		if s.Profile != nil {
			name = s.Profile.Username
			if s.Profile.Email != "" {
				name += " <" + s.Profile.Email + ">"
			}
		}
		status := []string{"token " + security.MaskToken(s.Access)}
		if exp, ok := s.ExpiresAt(); ok {
			if s.Expired(time.Now()) {
				status = append(status, "expired "+exp.Local().Format(time.RFC3339))
			} else {
				status = append(status, "expires "+exp.Local().Format(time.RFC3339))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", name, strings.Join(status, ", "))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "username (prompted if empty)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
