package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vplatform/vpsim/pkg/control"
	"github.com/vplatform/vpsim/pkg/kernel"
	"github.com/vplatform/vpsim/pkg/loader"
	"github.com/vplatform/vpsim/pkg/util"
)

var runCmd = &cobra.Command{
	Use:   "run <topology.json>",
	Short: "Run a topology to completion",
	Long: `Run drives the full lifecycle: parse, instantiate, build, bind,
reset, run until stop or no more events, then stop and flush.

Use "-" as the topology path to read the document from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		root, err := kernel.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		inbox, err := buildInbox()
		if err != nil {
			return fmt.Errorf("control inbox: %w", err)
		}

		var envOverride loader.Env
		envOverride.IncludeDirs = app.includeDirs
		if app.debugMode {
			envOverride.BuildMode = loader.Debug
		}

		d, err := kernel.New(root, "root", inbox, envOverride)
		if err != nil {
			return fmt.Errorf("building simulation: %w", err)
		}

		if err := d.Run(); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		if path != "-" {
			app.settings.LastConfig = path
			if err := app.settings.Save(); err != nil {
				util.Logger.Warnf("could not persist settings: %v", err)
			}
		}
		return nil
	},
}

// buildInbox picks Redis or the in-process channel for the control inbox,
// per the CLI's --control-redis flag (falling back to settings, then local).
func buildInbox() (control.Inbox, error) {
	addr := app.controlRedis
	if addr == "" {
		return control.NewLocalInbox(64), nil
	}
	return control.NewRedisInbox(addr, app.redisKey)
}
