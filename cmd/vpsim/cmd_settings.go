package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vplatform/vpsim/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent CLI defaults",
	Long: `Manage persistent defaults stored in ~/.vpsim/settings.yaml.

  vpsim settings show
  vpsim settings set build-mode debug
  vpsim settings set include-dirs /opt/vpsim/modules:./modules
  vpsim settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")
		print := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}
		print("build_mode", s.BuildMode)
		print("include_dirs", strings.Join(s.IncludeDirs, ":"))
		print("last_config", s.LastConfig)
		print("redis_addr", s.RedisAddr)
		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Available settings:
  build-mode     - "release" or "debug"
  include-dirs   - colon-separated module search directories
  last-config    - topology path recorded by the last successful run
  redis-addr     - Redis address backing the control inbox`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, value := args[0], args[1]
		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}
		switch name {
		case "build-mode", "build_mode":
			s.BuildMode = value
		case "include-dirs", "include_dirs":
			s.IncludeDirs = strings.Split(value, ":")
		case "last-config", "last_config":
			s.LastConfig = value
		case "redis-addr", "redis_addr":
			s.RedisAddr = value
		default:
			return fmt.Errorf("unknown setting: %s (valid: build-mode, include-dirs, last-config, redis-addr)", name)
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set to: %s\n", name, value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := (&settings.Settings{}).Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
}
