package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/db"
	"github.com/recipeserver/cloudcmd/internal/devices"
)

var devicesCmd = &cobra.Command{
	Use:   "devices [query]",
	Short: "List device models from the local cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		onlyApproved, _ := cmd.Flags().GetBool("approved")

		dbConn, err := db.InitDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()
		cache := devices.NewCache(dbConn)

		var models []devices.Model
		var fetched time.Time
		if refresh {
			c, err := newClient(true)
			if err != nil {
				return err
			}
			if models, err = c.ListDeviceModels(context.Background()); err != nil {
				return err
			}
			fetched = time.Now()
			if err := cache.Replace(models, fetched); err != nil {
				return err
			}
			logger.Info("device models refreshed", zap.Int("count", len(models)))
		} else {
			if models, fetched, err = cache.List(); err != nil {
				return err
			}
			if len(models) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no cached device models; run 'cloudcmd devices --refresh'")
				return nil
			}
		}

		if onlyApproved {
			models = devices.Approved(models)
		}
		if len(args) == 1 {
			models = devices.Match(models, args[0])
		}
		for _, m := range models {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Identifier, m.Status, m.Name)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d model(s), fetched %s\n", len(models), fetched.Local().Format(time.RFC3339))
		return nil
	},
}

func init() {
	devicesCmd.Flags().Bool("refresh", false, "fetch the list from the server and update the cache")
	devicesCmd.Flags().Bool("approved", false, "only show approved models")
	rootCmd.AddCommand(devicesCmd)
}
