package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/api"
	"github.com/recipeserver/cloudcmd/internal/sanitize"
	"github.com/recipeserver/cloudcmd/internal/utils"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Work with recipes on the server",
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List server recipes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mine, _ := cmd.Flags().GetBool("mine")
		model, _ := cmd.Flags().GetString("model")
		c, err := newClient(true)
		if err != nil {
			return err
		}
		f := api.RecipeFilter{Model: model}
		if mine {
			f.Author = "me"
		}
		recipes, err := c.ListRecipes(context.Background(), f)
		if err != nil {
			return err
		}
		if len(recipes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recipes")
			return nil
		}
		for _, rec := range recipes {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", rec.ID, rec.Status,
				sanitize.Display(rec.Title), sanitize.Display(rec.Author.Username))
		}
		return nil
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe's cloud commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecipeID(args[0])
		if err != nil {
			return err
		}
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
			logger.Warn("recipe cloud_commands could not be parsed", zap.Int64("recipe", id), zap.Error(perr))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recipe %d: %s (%s)\n", rec.ID, sanitize.Display(rec.Title), rec.Status)
		printSets(cmd.OutOrStdout(), sets)
		return nil
	},
}

var recipeCommandsCmd = &cobra.Command{
	Use:   "commands <id>",
	Short: "Show the commands a recipe generates for one device model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			return fmt.Errorf("--model is required")
		}
		id, err := parseRecipeID(args[0])
		if err != nil {
			return err
		}
		c, err := newClient(true)
		if err != nil {
			return err
		}
		mc, err := c.RecipeCommands(context.Background(), id, model)
		if err != nil {
			return err
		}
		sets, err := mc.CommandSets()
		if err != nil {
			return err
		}
		printSets(cmd.OutOrStdout(), sets)
		return nil
	},
}

var recipeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recipe on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		id, err := parseRecipeID(args[0])
		if err != nil {
			return err
		}
		c, err := newClient(true)
		if err != nil {
			return err
		}
		if !yes && !utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete recipe %d on the server?", id)) {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
		if err := c.DeleteRecipe(context.Background(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted recipe %d\n", id)
		return nil
	},
}

var recipeReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Submit a recipe for review or withdraw it",
}

func reviewCommand(use, short string, call func(*api.Client, context.Context, int64) (api.Recipe, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecipeID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(true)
			if err != nil {
				return err
			}
			rec, err := call(c, context.Background(), id)
			if err != nil {
				return err
			}
			status := rec.Status
			if status == "" {
				status = "unknown"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipe %d status: %s\n", id, status)
			return nil
		},
	}
}

func init() {
	recipeListCmd.Flags().Bool("mine", false, "only recipes authored by the signed-in user")
	recipeListCmd.Flags().String("model", "", "only recipes compatible with this device model")
	recipeCommandsCmd.Flags().String("model", "", "device model identifier")
	recipeDeleteCmd.Flags().BoolP("yes", "y", false, "delete without confirmation")

	recipeReviewCmd.AddCommand(
		reviewCommand("submit", "Submit a recipe for review", (*api.Client).SubmitForReview),
		reviewCommand("cancel", "Withdraw a recipe from review", (*api.Client).CancelReview),
	)
	recipeCmd.AddCommand(recipeListCmd, recipeShowCmd, recipeCommandsCmd, recipeDeleteCmd, recipeReviewCmd)
	rootCmd.AddCommand(recipeCmd)
}
