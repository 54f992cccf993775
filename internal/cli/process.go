package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/detect"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/processor"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/store"
)

var (
	dbPath      string
	procTimeout time.Duration
)

// commentFile is the YAML input format for comment batches. Account
// creation times are optional and feed the astroturf recency heuristic.
type commentFile struct {
	Comments []model.Comment      `yaml:"comments"`
	Accounts map[string]time.Time `yaml:"accounts"`
}

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <comments.yaml>",
	Short: "Extract and persist argument structure from a comment batch",
	Long: `Process reads citizen comments from a YAML file and extracts their
argument structure:
- Split each comment into arguments, claims, and cited evidence
- Score evidence credibility against the knowledge registries
- Persist everything for later synthesis

Malformed comments are skipped and logged; they never block the batch.

Example:
  chanuka process comments.yaml
  chanuka process comments.yaml --db chanuka.db`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

// runCmd represents the run command: process plus synthesis in one pass
var runCmd = &cobra.Command{
	Use:   "run <comments.yaml>",
	Short: "Process a comment batch and synthesize briefs in one pass",
	Long: `Run is the single-invocation pipeline: it processes a comment batch,
triggers a synthesis job per bill mentioned in the batch, waits for the
jobs to finish, and prints each resulting brief.

Example:
  chanuka run comments.yaml
  chanuka run comments.yaml --db chanuka.db --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(runCmd)

	processCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: in-memory)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: in-memory)")
	runCmd.Flags().DurationVar(&procTimeout, "timeout", 10*time.Minute, "overall pipeline timeout")
}

// openStore builds the store from config, with the --db flag taking
// precedence
func openStore(cfg *model.Config) (store.Store, error) {
	storeCfg := cfg.Store
	if dbPath != "" {
		storeCfg = model.StoreConfig{Driver: "sqlite", Path: dbPath}
	}
	return store.New(storeCfg)
}

func newProcessor(cfg *model.Config, st store.Store) (*processor.Processor, error) {
	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "chanuka: ", log.LstdFlags)
	} else {
		logger = log.New(io.Discard, "", 0)
	}
	return processor.New(cfg, st, logger)
}

func readCommentFile(path string) (*commentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var batch commentFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &batch, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	batch, err := readCommentFile(args[0])
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	proc, err := newProcessor(cfg, st)
	if err != nil {
		return err
	}
	defer proc.Close()

	processed := proc.ProcessComments(context.Background(), batch.Comments)
	fmt.Fprintf(os.Stderr, "Processed %d/%d comments\n", processed, len(batch.Comments))

	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	batch, err := readCommentFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), procTimeout)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	proc, err := newProcessor(cfg, st)
	if err != nil {
		return err
	}
	defer proc.Close()

	processed := proc.ProcessComments(ctx, batch.Comments)
	fmt.Fprintf(os.Stderr, "Processed %d/%d comments\n", processed, len(batch.Comments))

	accounts := detect.AccountSignals(batch.Accounts)
	for _, billID := range billIDs(batch.Comments) {
		job, err := proc.TriggerSynthesis(ctx, processor.SynthesisRequest{BillID: billID, Accounts: accounts})
		if err != nil {
			return fmt.Errorf("synthesize bill %s: %w", billID, err)
		}

		final, err := proc.AwaitJob(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("await job %s: %w", job.ID, err)
		}
		if final.Status != model.JobCompleted {
			fmt.Fprintf(os.Stderr, "Bill %s: job %s %s (%s)\n", billID, final.ID, final.Status, final.Error)
			continue
		}

		brief, err := proc.Brief(ctx, billID)
		if err != nil {
			return fmt.Errorf("brief for bill %s: %w", billID, err)
		}
		fmt.Println(brief.Narrative)
		fmt.Println()
	}

	return nil
}

// billIDs lists the distinct bills in a batch, in stable order
func billIDs(comments []model.Comment) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range comments {
		if c.BillID != "" && !seen[c.BillID] {
			seen[c.BillID] = true
			ids = append(ids, c.BillID)
		}
	}
	sort.Strings(ids)
	return ids
}
