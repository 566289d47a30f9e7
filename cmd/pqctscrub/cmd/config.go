/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/config"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default configuration with a generated API key",
		Annotations: map[string]string{skipContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}
			if _, err := config.BootstrapConfig(a.configPath); err != nil {
				return err
			}
			cmd.Printf("Wrote configuration to %s\n", a.configPath)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")

	showCmd := &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Annotations: map[string]string{skipContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *a.cfg
			shown.Server.APIKey = maskKey(shown.Server.APIKey)
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}

// maskKey keeps the first characters of a secret so it can be recognized
func maskKey(key string) string {
	if key == "" || key == "auto" {
		return key
	}
	if len(key) <= 8 {
		return "..."
	}
	return key[:8] + "..."
}
