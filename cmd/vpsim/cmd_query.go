package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/vplatform/vpsim/pkg/kernel"
)

var queryCmd = &cobra.Command{
	Use:   "query <topology.json> <jq-expr>",
	Short: "Run a jq expression over the parsed config tree",
	Long: `query converts the parsed Config Tree to plain Go values (via
Node.Interface) and evaluates a jq expression against it — handy for
checking what a "*"/"**" wildcard path would resolve to, without
recompiling a topology into a running simulation.

  vpsim query topology.json '.vp_comps | keys'
  vpsim query topology.json '.vp_comps["cpu0"].vp_component'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := kernel.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		query, err := gojq.Parse(args[1])
		if err != nil {
			return fmt.Errorf("parsing jq expression: %w", err)
		}
		iter := query.RunWithContext(context.Background(), root.Interface())
		for {
			v, ok := iter.Next()
			if !ok {
				return nil
			}
			if err, ok := v.(error); ok {
				return fmt.Errorf("jq: %w", err)
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
	},
}
