package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/cobra"
	"jordanella.com/card-battle-go/internal/config"
)

var initConfigCmd = &cli.Command{
	Use:   "init-config",
	Short: "Write a settings file",
	Long:  "Write the current settings, defaults included, to the file named by --config.",
	RunE:  InitConfig,
}

func init() {
	rootCmd.AddCommand(initConfigCmd)

	initConfigCmd.Flags().Bool("force", false, "Overwrite an existing settings file.")
}

func InitConfig(cmd *cli.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := config.SaveToINI(settings, path); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
