package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/nameutil"
	"github.com/recipeserver/cloudcmd/internal/recorder"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Manage the command sets of a draft",
}

var setAddCmd = &cobra.Command{
	Use:   "add <draft> <model>",
	Short: "Add a command set for a device model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hex, _ := cmd.Flags().GetString("hex")
		model, changed := nameutil.Sanitize(args[1])
		if changed {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: device model cleaned to %q\n", model)
		}
		if err := nameutil.ValidateModel(model); err != nil {
			return err
		}
		s, err := updateDraft(args[0], commandset.AddSet{Model: model, HexCommand: hex})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s to '%s' (%d/%d set(s))\n", model, args[0], len(s.Sets), s.MaxSets)
		return nil
	},
}

var setRemoveCmd = &cobra.Command{
	Use:   "remove <draft> <model>",
	Short: "Remove a device model's command set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := updateDraft(args[0], commandset.RemoveSet{Model: strings.TrimSpace(args[1])}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s from '%s'\n", args[1], args[0])
		return nil
	},
}

var setHexCmd = &cobra.Command{
	Use:   "hex <draft> <model> <hex>",
	Short: "Set the hex command of a command set",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := updateDraft(args[0], commandset.SetHex{Model: strings.TrimSpace(args[1]), HexCommand: args[2]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "set hex command of %s in '%s'\n", args[1], args[0])
		return nil
	},
}

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Edit the steps of a draft's command set",
}

var stepAddCmd = &cobra.Command{
	Use:   "add <draft> <model> <description>",
	Short: "Add a step, at the end or after a given step number",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		after, _ := cmd.Flags().GetInt("after")
		if _, err := updateDraft(args[0], commandset.AddStep{Model: strings.TrimSpace(args[1]), After: after, Description: args[2]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added step to %s in '%s'\n", args[1], args[0])
		return nil
	},
}

var stepEditCmd = &cobra.Command{
	Use:   "edit <draft> <model> <step-no> <description>",
	Short: "Change a step's description",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		no, err := parseStepNo(args[2])
		if err != nil {
			return err
		}
		if _, err := updateDraft(args[0], commandset.EditStep{Model: strings.TrimSpace(args[1]), No: no, Description: args[3]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated step %d of %s in '%s'\n", no, args[1], args[0])
		return nil
	},
}

var stepDeleteCmd = &cobra.Command{
	Use:   "delete <draft> <model> <step-no>",
	Short: "Delete a step and renumber the ones after it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		no, err := parseStepNo(args[2])
		if err != nil {
			return err
		}
		if _, err := updateDraft(args[0], commandset.DeleteStep{Model: strings.TrimSpace(args[1]), No: no}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted step %d of %s in '%s'\n", no, args[1], args[0])
		return nil
	},
}

var stepRecordCmd = &cobra.Command{
	Use:   "record <draft> <model>",
	Short: "Append steps read from stdin, one per line",
	Long:  "Append steps read from stdin, one per line, until EOF (Ctrl-D). Lines starting with # are ignored.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "Enter steps, one per line. End with EOF (Ctrl-D).")
		lines, err := recorder.RecordSteps(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("no steps recorded")
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		if _, err := recorder.SaveRecorded(r, args[0], strings.TrimSpace(args[1]), lines); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %d step(s) to %s in '%s'\n", len(lines), args[1], args[0])
		return nil
	},
}

func init() {
	setAddCmd.Flags().String("hex", "", "hex command for the set")
	stepAddCmd.Flags().Int("after", -1, "insert after this step number (0 for first; default appends)")

	setCmd.AddCommand(setAddCmd, setRemoveCmd, setHexCmd)
	stepCmd.AddCommand(stepAddCmd, stepEditCmd, stepDeleteCmd, stepRecordCmd)
	rootCmd.AddCommand(setCmd, stepCmd)
}
