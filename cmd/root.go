package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/api"
	"github.com/recipeserver/cloudcmd/internal/config"
	"github.com/recipeserver/cloudcmd/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cloudcmd",
	Short: "cloudcmd edits and submits recipe cloud commands",
	Long: "cloudcmd keeps local drafts of the device command steps attached to recipes,\n" +
		"normalizes legacy payloads, validates them and submits them to the recipe server.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			p, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		l, err := logging.New(c.Log, verbose)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		logger.Debug("config loaded", zap.String("path", path), zap.String("api", cfg.API.BaseURL))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "cloudcmd: run 'cloudcmd --help' to see available commands")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CLOUDCMD_HOME/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printServerBody(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

// printServerBody writes the unabridged response body of a failed server call.
func printServerBody(w io.Writer, err error) {
	var se *api.ServerError
	if !errors.As(err, &se) || strings.TrimSpace(se.Body) == "" {
		return
	}
	fmt.Fprintf(w, "server response (HTTP %d):\n%s\n", se.Status, strings.TrimRight(se.Body, "\n"))
}
