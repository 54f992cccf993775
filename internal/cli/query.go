package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/processor"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/store"
)

var (
	queryDB       string
	queryJSON     bool
	queryYAML     bool
	queryPosition string
)

// briefCmd represents the brief command
var briefCmd = &cobra.Command{
	Use:   "brief <bill-id>",
	Short: "Print the bill's latest legislative brief",
	Long: `Brief prints the most recent synthesized brief for a bill. Before any
synthesis job has completed for the bill, the brief is not ready.

Example:
  chanuka brief hb-2291 --db chanuka.db
  chanuka brief hb-2291 --db chanuka.db --json
  chanuka brief hb-2291 --db chanuka.db --yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runBrief,
}

// argumentsCmd represents the arguments command
var argumentsCmd = &cobra.Command{
	Use:   "arguments <bill-id>",
	Short: "List the bill's extracted arguments",
	Long: `Arguments lists the structured arguments extracted from the bill's
comments, optionally filtered by position.

Example:
  chanuka arguments hb-2291 --db chanuka.db
  chanuka arguments hb-2291 --db chanuka.db --position oppose`,
	Args: cobra.ExactArgs(1),
	RunE: runArguments,
}

// clustersCmd represents the clusters command
var clustersCmd = &cobra.Command{
	Use:   "clusters <bill-id>",
	Short: "List the bill's argument clusters",
	Args:  cobra.ExactArgs(1),
	RunE:  runClusters,
}

// coalitionsCmd represents the coalitions command
var coalitionsCmd = &cobra.Command{
	Use:   "coalitions <bill-id>",
	Short: "List the bill's coalition annotations",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoalitions,
}

func init() {
	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(argumentsCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(coalitionsCmd)

	for _, cmd := range []*cobra.Command{briefCmd, argumentsCmd, clustersCmd, coalitionsCmd} {
		cmd.Flags().StringVar(&queryDB, "db", "", "SQLite database path")
		cmd.Flags().BoolVar(&queryJSON, "json", false, "emit JSON instead of text")
	}
	briefCmd.Flags().BoolVar(&queryYAML, "yaml", false, "emit YAML instead of text")
	argumentsCmd.Flags().StringVar(&queryPosition, "position", "", "filter by position (support, oppose, neutral)")
}

func runBrief(cmd *cobra.Command, args []string) error {
	proc, st, err := queryProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	defer proc.Close()

	brief, err := proc.Brief(context.Background(), args[0])
	if errors.Is(err, model.ErrNotReady) {
		fmt.Fprintf(os.Stderr, "No brief for bill %s yet. Run 'chanuka synthesize %s' first.\n", args[0], args[0])
		return nil
	}
	if err != nil {
		return err
	}

	switch {
	case queryJSON:
		return emitJSON(brief)
	case queryYAML:
		return emitYAML(brief)
	}
	fmt.Println(brief.Narrative)
	return nil
}

func runArguments(cmd *cobra.Command, args []string) error {
	var position *model.Position
	if queryPosition != "" {
		p := model.Position(queryPosition)
		switch p {
		case model.PositionSupport, model.PositionOppose, model.PositionNeutral:
			position = &p
		default:
			return fmt.Errorf("unknown position: %s", queryPosition)
		}
	}

	proc, st, err := queryProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	defer proc.Close()

	arguments, err := proc.Arguments(context.Background(), args[0], position)
	if err != nil {
		return err
	}

	if queryJSON {
		return emitJSON(arguments)
	}
	for _, a := range arguments {
		fmt.Printf("%s  %-8s strength %5.1f confidence %.2f  %s\n", a.ID, a.Position, a.Strength, a.Confidence, truncateText(a.Text, 80))
	}
	fmt.Fprintf(os.Stderr, "%d argument(s)\n", len(arguments))
	return nil
}

func runClusters(cmd *cobra.Command, args []string) error {
	proc, st, err := queryProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	defer proc.Close()

	clusters, err := proc.Clusters(context.Background(), args[0])
	if err != nil {
		return err
	}

	if queryJSON {
		return emitJSON(clusters)
	}
	for _, c := range clusters {
		line := fmt.Sprintf("%s  %-8s size %4d weight %.3f", c.ID, c.Position, c.Size, c.Weight)
		if c.AstroturfingConf > 0 {
			line += fmt.Sprintf(" astroturf %.2f", c.AstroturfingConf)
		}
		fmt.Println(line)
	}
	fmt.Fprintf(os.Stderr, "%d cluster(s)\n", len(clusters))
	return nil
}

func runCoalitions(cmd *cobra.Command, args []string) error {
	proc, st, err := queryProcessor()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	defer proc.Close()

	coalitions, err := proc.Coalitions(context.Background(), args[0])
	if err != nil {
		return err
	}

	if queryJSON {
		return emitJSON(coalitions)
	}
	for _, c := range coalitions {
		fmt.Printf("%s  %s  %d cluster(s), %d argument(s)\n", c.ID, c.StakeholderSignature, len(c.ClusterIDs), c.Size)
	}
	fmt.Fprintf(os.Stderr, "%d coalition(s)\n", len(coalitions))
	return nil
}

func queryProcessor() (*processor.Processor, store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if queryDB != "" {
		cfg.Store = model.StoreConfig{Driver: "sqlite", Path: queryDB}
	}

	s, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := newProcessor(cfg, s)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return p, s, nil
}

func emitJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func emitYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
