package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name  string
		json  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config file",
		Long: `Write fiber.yaml (or fiber.json with --json) holding every default.

Examples:
  fiber init
  fiber init --json ./app`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			file := config.YAMLFileName
			if json {
				file = config.ConfigFileName
			}
			path := filepath.Join(dir, file)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E120").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			cfg := config.New()
			cfg.Name = name
			if cfg.Name == "" {
				abs, _ := filepath.Abs(dir)
				cfg.Name = filepath.Base(abs)
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	cmd.Flags().BoolVar(&json, "json", false, "Write fiber.json instead of fiber.yaml")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
