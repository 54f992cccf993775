package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/processor"
)

var (
	synthForce   bool
	synthWait    bool
	synthTimeout time.Duration
	synthDB      string
)

// synthesizeCmd represents the synthesize command
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <bill-id>",
	Short: "Run the synthesis pipeline for one bill",
	Long: `Synthesize clusters the bill's extracted arguments, detects
coordinated submission patterns, annotates coalitions, applies fairness
re-weighting, and generates the legislative brief.

At most one synthesis job is active per bill. Triggering while a job is
active returns the existing job; --force supersedes it instead.

Example:
  chanuka synthesize hb-2291 --db chanuka.db
  chanuka synthesize hb-2291 --db chanuka.db --force --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	synthesizeCmd.Flags().StringVar(&synthDB, "db", "", "SQLite database path (default: in-memory)")
	synthesizeCmd.Flags().BoolVar(&synthForce, "force", false, "supersede an already-active job")
	synthesizeCmd.Flags().BoolVar(&synthWait, "wait", true, "wait for the job to finish")
	synthesizeCmd.Flags().DurationVar(&synthTimeout, "timeout", 10*time.Minute, "wait timeout")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	billID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if synthDB != "" {
		cfg.Store = model.StoreConfig{Driver: "sqlite", Path: synthDB}
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

	ctx, cancel := context.WithTimeout(context.Background(), synthTimeout)
	defer cancel()

	job, err := proc.TriggerSynthesis(ctx, processor.SynthesisRequest{BillID: billID, Force: synthForce})
	if err != nil {
		var conflict *model.JobConflict
		if errors.As(err, &conflict) {
			fmt.Fprintf(os.Stderr, "Synthesis already in progress for bill %s (job %s). Use --force to supersede.\n", billID, conflict.JobID)
			return nil
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "Started job %s for bill %s\n", job.ID, billID)

	if !synthWait {
		return nil
	}

	final, err := proc.AwaitJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("await job: %w", err)
	}

	switch final.Status {
	case model.JobCompleted:
		fmt.Fprintf(os.Stderr, "Job %s completed\n", final.ID)
	default:
		fmt.Fprintf(os.Stderr, "Job %s %s: %s\n", final.ID, final.Status, final.Error)
	}
	return nil
}
