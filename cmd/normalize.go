package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/db"
	"github.com/recipeserver/cloudcmd/internal/devices"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Convert a cloud_commands file to the current submission format",
	Long: "Read a JSON or YAML cloud_commands file in the legacy (model/commands) or current\n" +
		"(model/hex_command/steps) format and print the submission payload.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		envelope, _ := cmd.Flags().GetBool("envelope")
		sets, err := wire.ReadFile(args[0])
		if err != nil {
			return err
		}
		sub := wire.Encode(sets)
		warnDropped(sub.Dropped)
		var out []byte
		if envelope {
			out, err = sub.MarshalEnvelope()
		} else {
			out, err = sub.Marshal()
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a cloud_commands file before submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		approved, _ := cmd.Flags().GetBool("approved")
		sets, err := wire.ReadFile(args[0])
		if err != nil {
			return err
		}
		var checker commandset.ModelChecker
		if approved {
			dbConn, err := db.InitDB()
			if err != nil {
				return err
			}
			defer func() { _ = dbConn.Close() }()
			checker, err = modelChecker(devices.NewCache(dbConn))
			if err != nil {
				return err
			}
			if checker == nil {
				return fmt.Errorf("no cached device models; run 'cloudcmd devices --refresh' first")
			}
		}
		if err := commandset.ValidateAll(sets, checker); err != nil {
			return err
		}
		if len(sets) > cfg.Editor.MaxCommandSets {
			logger.Warn("more command sets than the editor allows",
				zap.Int("sets", len(sets)), zap.Int("max", cfg.Editor.MaxCommandSets))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d command set(s)\n", len(sets))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().Bool("envelope", false, "wrap output as {\"cloud_commands\": [...]}")
	validateCmd.Flags().Bool("approved", false, "also require device models approved in the local cache")
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(validateCmd)
}
