// vpsim is a discrete-event virtual-platform simulation launcher.
//
// Noun-verb-ish CLI pattern:
//
//	vpsim run <topology.json> [--include dir]... [--control-redis addr]
//	vpsim validate-config <topology.json>
//	vpsim query <topology.json> <jq-expr>
//	vpsim repl <topology.json>
//	vpsim settings show|set|clear
//
// Examples:
//
//	vpsim run topology.json
//	vpsim run topology.json --debug-mode
//	vpsim validate-config topology.json
//	vpsim query topology.json '.vp_comps | keys'
//	vpsim repl topology.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/vplatform/vpsim/models/example/wirecounter"
	_ "github.com/vplatform/vpsim/models/passthrough"
	"github.com/vplatform/vpsim/pkg/settings"
	"github.com/vplatform/vpsim/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	includeDirs  []string
	debugMode    bool
	verbose      bool
	controlRedis string
	redisKey     string

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "vpsim",
	Short:             "Discrete-event virtual-platform simulation launcher",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `vpsim loads a component-tree topology and runs it as a discrete-event
simulation: parse config, instantiate the component tree, build, bind
ports, reset, run, stop and flush.

  vpsim run <topology.json>
  vpsim validate-config <topology.json>
  vpsim query <topology.json> <jq-expr>
  vpsim repl <topology.json>`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}
		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}
		if len(app.includeDirs) == 0 {
			app.includeDirs = app.settings.IncludeDirs
		}
		if app.controlRedis == "" {
			app.controlRedis = app.settings.RedisAddr
		}
		if !app.debugMode && app.settings.BuildMode == "debug" {
			app.debugMode = true
		}
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}
		return nil
	},
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&app.includeDirs, "include", "I", nil, "module search directory (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&app.debugMode, "debug-mode", false, "resolve modules against debug-tagged build output")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&app.controlRedis, "control-redis", "", "Redis address backing the control inbox (default: in-process channel)")
	rootCmd.PersistentFlags().StringVar(&app.redisKey, "control-redis-key", "vpsim:control", "Redis list key used for the control inbox")

	rootCmd.AddGroup(&cobra.Group{ID: "run", Title: "Simulation Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "meta", Title: "Configuration & Meta:"})

	for _, cmd := range []*cobra.Command{runCmd, validateCmd, queryCmd, replCmd} {
		cmd.GroupID = "run"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vpsim dev build")
	},
}
