package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/importer"
	"github.com/recipeserver/cloudcmd/internal/recorder"
	"github.com/recipeserver/cloudcmd/internal/utils"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage local drafts",
}

var draftNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a draft, optionally from an existing recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		hex, _ := cmd.Flags().GetString("hex")
		recipe, _ := cmd.Flags().GetString("recipe")

		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		if recipe != "" {
			id, err := parseRecipeID(recipe)
			if err != nil {
				return err
			}
			recipe = strconv.FormatInt(id, 10)
			c, err := newClient(true)
			if err != nil {
				return err
			}
			rec, err := c.GetRecipe(context.Background(), id)
			if err != nil {
				return err
			}
			sets, perr := wire.LoadForEdit(rec.CloudCommands)
			if perr != nil {
				logger.Warn("recipe cloud_commands could not be parsed; starting empty",
					zap.String("recipe", recipe), zap.Error(perr))
			}
			res, err := importer.ImportSets(r, sets, args[0], cfg.Editor.MaxCommandSets, &recipe)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created draft '%s' from recipe %s with %d command set(s)\n", res.Name, recipe, res.Sets)
			return nil
		}

		s := commandset.NewSession(cfg.Editor.MaxCommandSets)
		if model != "" {
			if s, err = commandset.Reduce(s, commandset.AddSet{Model: model, HexCommand: hex}); err != nil {
				return err
			}
		}
		if _, err := r.CreateDraft(args[0], nil, s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created draft '%s'\n", strings.TrimSpace(args[0]))
		return nil
	},
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		drafts, err := r.ListDrafts()
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
			return nil
		}
		for _, d := range drafts {
			recipe := "new"
			if d.RecipeID.Valid {
				recipe = "recipe " + d.RecipeID.String
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.Name, recipe, d.CreatedAt)
		}
		return nil
	},
}

var draftSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search drafts by name, device model or step text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		res, err := r.FuzzySearchDrafts(args[0])
		if err != nil {
			return err
		}
		for _, d := range res {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d set(s)\t%d step(s)\n", d.Name, len(d.Sets), d.StepCount())
		}
		return nil
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a draft's command sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		d, err := r.MustGetDraft(args[0])
		if err != nil {
			return err
		}
		if asJSON {
			b, err := wire.Submission{CloudCommands: wire.Snapshot(d.Sets)}.MarshalEnvelope()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "draft: %s (max %d set(s))\n", d.Name, d.MaxCommandSets)
		if d.RecipeID.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "recipe: %s\n", d.RecipeID.String)
		}
		printSets(cmd.OutOrStdout(), d.Sets)
		return nil
	},
}

var draftDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		yes, _ := cmd.Flags().GetBool("yes")

		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		if !yes {
			if !utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete draft '%s' permanently?", name)) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}
		if err := r.DeleteDraft(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted '%s'\n", name)
		return nil
	},
}

var draftHistoryCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show version history for a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		vers, err := r.ListVersionsByName(args[0])
		if err != nil {
			return err
		}
		if len(vers) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no history for %s\n", args[0])
			return nil
		}
		for _, v := range vers {
			steps := 0
			for _, cs := range v.Sets {
				steps += len(cs.Steps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "v%d\t%s\t%s\t%d set(s)\t%d step(s)\n", v.Version, v.CreatedAt, v.Operation, len(v.Sets), steps)
		}
		return nil
	},
}

var draftRollbackCmd = &cobra.Command{
	Use:   "rollback <name>",
	Short: "Restore a draft to an earlier version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetInt("version")
		if v <= 0 {
			return fmt.Errorf("--version is required")
		}
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		if err := r.ApplyVersionByName(args[0], v); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back '%s' to v%d\n", args[0], v)
		return nil
	},
}

var draftEditCmd = &cobra.Command{
	Use:   "edit <name> <model>",
	Short: "Replace the steps of a draft's command set",
	Long: "Replace all steps of one command set. With --step flags the steps are set directly;\n" +
		"otherwise the current steps are opened in editor.command ($VISUAL or $EDITOR when unset),\n" +
		"one per line.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, model := args[0], strings.TrimSpace(args[1])
		steps, _ := cmd.Flags().GetStringArray("step")

		if len(steps) == 0 {
			r, err := openRepo()
			if err != nil {
				return err
			}
			d, err := r.MustGetDraft(name)
			_ = r.Close()
			if err != nil {
				return err
			}
			i := d.Session().Find(model)
			if i < 0 {
				return fmt.Errorf("%w: %s", commandset.ErrSetNotFound, model)
			}
			if steps, err = editInEditor(d.Sets[i].Steps.Descriptions()); err != nil {
				return err
			}
		}
		s, err := updateDraft(name, commandset.ReplaceSteps{Model: model, Descriptions: steps})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated '%s' %s with %d step(s)\n", name, model, len(s.Sets[s.Find(model)].Steps))
		return nil
	},
}

func editInEditor(current []string) ([]string, error) {
	tmpf, err := os.CreateTemp("", "cloudcmd-edit-*.txt")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmpf.Name()) }()
	if _, err := tmpf.WriteString("# one step per line; lines starting with # are ignored\n" + strings.Join(current, "\n") + "\n"); err != nil {
		_ = tmpf.Close()
		return nil, err
	}
	if err := tmpf.Close(); err != nil {
		return nil, err
	}
	if err := utils.OpenEditor(utils.ResolveEditor(cfg.Editor.Command), tmpf.Name()); err != nil {
		return nil, err
	}
	f, err := os.Open(tmpf.Name())
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return recorder.RecordSteps(f)
}

func init() {
	draftNewCmd.Flags().String("model", "", "device model for the first command set")
	draftNewCmd.Flags().String("hex", "", "hex command for the first command set")
	draftNewCmd.Flags().String("recipe", "", "start from the cloud commands of an existing recipe ID")
	draftShowCmd.Flags().Bool("json", false, "print all sets as JSON")
	draftDeleteCmd.Flags().BoolP("yes", "y", false, "delete without confirmation")
	draftRollbackCmd.Flags().Int("version", 0, "version number to restore")
	draftEditCmd.Flags().StringArrayP("step", "s", nil, "step description (repeatable, replaces all steps)")

	draftCmd.AddCommand(draftNewCmd, draftListCmd, draftSearchCmd, draftShowCmd,
		draftDeleteCmd, draftHistoryCmd, draftRollbackCmd, draftEditCmd)
	rootCmd.AddCommand(draftCmd)
}

