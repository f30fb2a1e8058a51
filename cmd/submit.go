package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/api"
	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/db"
	"github.com/recipeserver/cloudcmd/internal/devices"
	"github.com/recipeserver/cloudcmd/internal/registry"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

var submitCmd = &cobra.Command{
	Use:   "submit <draft>",
	Short: "Validate a draft and send it to the recipe server",
	Long: "Validate a draft and send its first command set to the server. Drafts started from a\n" +
		"recipe update it; other drafts create a new recipe. The draft is discarded once the\n" +
		"server accepts it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		multipart := cfg.API.Multipart
		if cmd.Flags().Changed("multipart") {
			multipart, _ = cmd.Flags().GetBool("multipart")
		}

		dbConn, err := db.InitDB()
		if err != nil {
			return err
		}
		r := registry.NewRepository(dbConn, logger)
		defer func() { _ = r.Close() }()

		d, err := r.MustGetDraft(args[0])
		if err != nil {
			return err
		}
		committed, err := prepareSubmission(d, devices.NewCache(dbConn))
		if err != nil {
			return err
		}
		sub := wire.Encode(committed.Sets)
		warnDropped(sub.Dropped)

		if dryRun {
			b, err := sub.MarshalEnvelope()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}

		var recipeID int64
		if d.RecipeID.Valid {
			if recipeID, err = parseRecipeID(d.RecipeID.String); err != nil {
				return err
			}
		}
		c, err := newClient(true)
		if err != nil {
			return err
		}
		if title == "" && recipeID == 0 {
			title = d.Name
		}
		in := api.RecipeInput{Title: title, Description: description, CloudCommands: sub, Multipart: multipart}
		ctx := context.Background()
		var rec api.Recipe
		if recipeID != 0 {
			rec, err = c.UpdateRecipe(ctx, recipeID, in)
		} else {
			rec, err = c.CreateRecipe(ctx, in)
		}
		if err != nil {
			return err
		}

		if err := r.DeleteDraft(d.Name); err != nil {
			return fmt.Errorf("recipe %d saved but draft not discarded: %w", rec.ID, err)
		}
		logger.Info("draft submitted", zap.String("draft", d.Name), zap.Int64("recipe", rec.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "submitted '%s' as recipe %d; draft discarded\n", d.Name, rec.ID)
		return nil
	},
}

// prepareSubmission validates the draft, against the cached device models
// when there are any, and returns its committed, densely numbered session.
func prepareSubmission(d *registry.Draft, cache *devices.Cache) (commandset.Session, error) {
	checker, err := modelChecker(cache)
	if err != nil {
		return commandset.Session{}, err
	}
	if checker == nil {
		logger.Debug("no cached device models; skipping approval check")
	}
	if err := commandset.ValidateAll(d.Sets, checker); err != nil {
		return commandset.Session{}, err
	}
	return d.Session().Commit()
}

func init() {
	submitCmd.Flags().String("title", "", "recipe title (new recipes default to the draft name)")
	submitCmd.Flags().String("description", "", "recipe description")
	submitCmd.Flags().Bool("multipart", false, "send multipart/form-data (default from config)")
	submitCmd.Flags().Bool("dry-run", false, "print the payload instead of sending it")
	rootCmd.AddCommand(submitCmd)
}
