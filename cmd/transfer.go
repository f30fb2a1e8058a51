package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recipeserver/cloudcmd/internal/exporter"
	"github.com/recipeserver/cloudcmd/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create a draft from a cloud_commands JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		res, err := importer.ImportFile(r, args[0], name, cfg.Editor.MaxCommandSets)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d command set(s) into draft '%s'\n", res.Sets, res.Name)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <draft>",
	Short: "Write a draft as a cloud_commands payload",
	Long: "Write a draft as {\"cloud_commands\": [...]}. By default the payload matches what\n" +
		"submit would send; --all keeps every set with its stored step numbers.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, _ := cmd.Flags().GetString("dst")
		all, _ := cmd.Flags().GetBool("all")
		format, _ := cmd.Flags().GetString("format")

		r, err := openRepo()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		var dropped []string
		if dst == "" {
			dropped, err = exporter.ExportDraft(r, args[0], cmd.OutOrStdout(), exporter.Options{Format: format, All: all})
		} else {
			dropped, err = exporter.ExportDraftFile(r, args[0], dst, all)
			if err == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported '%s' to %s\n", args[0], dst)
			}
		}
		if err != nil {
			return err
		}
		warnDropped(dropped)
		return nil
	},
}

func init() {
	importCmd.Flags().String("name", "", "draft name (default: file name)")
	exportCmd.Flags().String("dst", "", "destination file (.json, .yaml); default stdout")
	exportCmd.Flags().Bool("all", false, "keep every command set")
	exportCmd.Flags().String("format", exporter.FormatJSON, "stdout format: json or yaml")
	rootCmd.AddCommand(importCmd, exportCmd)
}
