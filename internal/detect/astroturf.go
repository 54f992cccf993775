package detect

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
)

// AccountSignals carries externally supplied account-recency data:
// user id to account creation time. Users absent from the map are
// treated as established accounts.
type AccountSignals map[string]time.Time

// Heuristic weights; phrasing duplication is the strongest tell
const (
	phrasingWeight = 0.40
	burstWeight    = 0.35
	recencyWeight  = 0.25

	// Below this confidence the cluster is not flagged at all
	noiseFloor = 0.2

	// Accounts younger than this at submission time count as recent
	recentAccountAge = 30 * 24 * time.Hour
)

// Detector flags clusters showing coordinated inauthentic submission
// patterns. It only annotates: nothing is deleted or hidden, and
// flagged clusters keep full provenance for audit.
type Detector struct {
	cfg    model.AstroturfConfig
	sink   ModerationSink
	logger *log.Logger
}

// ModerationSink receives astroturfing signals for human review.
// Delivery is fire-and-forget and must not block the pipeline.
type ModerationSink interface {
	Notify(signal model.AstroturfingSignal)
}

// LogSink is the default moderation sink: it records signals on the
// process log
type LogSink struct {
	Logger *log.Logger
}

// Notify logs the signal
func (s *LogSink) Notify(signal model.AstroturfingSignal) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("moderation review: cluster %s confidence %.2f reasons %v", signal.ClusterID, signal.Confidence, signal.Reasons)
}

// NewDetector creates a detector. A nil sink falls back to logging.
func NewDetector(cfg model.AstroturfConfig, sink ModerationSink, logger *log.Logger) *Detector {
	if cfg.PhrasingThreshold <= 0 {
		cfg.PhrasingThreshold = 0.9
	}
	if cfg.BurstWindowSec <= 0 {
		cfg.BurstWindowSec = 600
	}
	if cfg.BurstRatio <= 0 {
		cfg.BurstRatio = 0.5
	}
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = 0.7
	}
	if logger == nil {
		logger = log.New(log.Writer(), "detect: ", log.LstdFlags)
	}
	if sink == nil {
		sink = &LogSink{Logger: logger}
	}
	return &Detector{cfg: cfg, sink: sink, logger: logger}
}

// Flag evaluates one cluster against the coordination heuristics.
// Returns nil when nothing rises above the noise floor. Signals above
// the review threshold are forwarded to the moderation sink without
// blocking.
func (d *Detector) Flag(cluster model.ArgumentCluster, members []model.ExtractedArgument, accounts AccountSignals, now time.Time) *model.AstroturfingSignal {
	if len(members) < 2 {
		return nil
	}

	phrasing := d.phrasingRatio(members)
	burst := d.burstDensity(members)
	recency := d.accountRecency(members, accounts, now)

	confidence := phrasingWeight*phrasing + burstWeight*burst + recencyWeight*recency
	if confidence > 1 {
		confidence = 1
	}
	if confidence < noiseFloor {
		return nil
	}

	var reasons []string
	if phrasing >= d.cfg.PhrasingThreshold {
		reasons = append(reasons, fmt.Sprintf("near-identical phrasing in %.0f%% of members", phrasing*100))
	}
	if burst >= d.cfg.BurstRatio {
		reasons = append(reasons, fmt.Sprintf("%.0f%% of submissions inside a %ds window", burst*100, d.cfg.BurstWindowSec))
	}
	if recency > 0.5 {
		reasons = append(reasons, fmt.Sprintf("%.0f%% of accounts created within 30 days of submitting", recency*100))
	}

	signal := &model.AstroturfingSignal{
		ClusterID:  cluster.ID,
		BillID:     cluster.BillID,
		Confidence: confidence,
		Reasons:    reasons,
		Data: map[string]interface{}{
			"phrasing_ratio":  phrasing,
			"burst_density":   burst,
			"account_recency": recency,
			"members":         len(members),
			"formula":         "0.40*phrasing + 0.35*burst + 0.25*recency",
		},
	}

	if confidence >= d.cfg.ReviewThreshold {
		go d.sink.Notify(*signal)
	}

	return signal
}

// phrasingRatio measures near-identical phrasing: the fraction of
// members whose normalized text duplicates another member's
func (d *Detector) phrasingRatio(members []model.ExtractedArgument) float64 {
	counts := make(map[string]int)
	for _, m := range members {
		counts[nlp.Normalize(m.Text)]++
	}

	duplicated := 0
	for _, c := range counts {
		if c > 1 {
			duplicated += c
		}
	}
	return float64(duplicated) / float64(len(members))
}

// burstDensity finds the largest fraction of submissions falling
// inside one burst window
func (d *Detector) burstDensity(members []model.ExtractedArgument) float64 {
	times := make([]time.Time, len(members))
	for i, m := range members {
		times[i] = m.CreatedAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	window := time.Duration(d.cfg.BurstWindowSec) * time.Second
	maxInWindow := 0
	lo := 0
	for hi := range times {
		for times[hi].Sub(times[lo]) > window {
			lo++
		}
		if n := hi - lo + 1; n > maxInWindow {
			maxInWindow = n
		}
	}
	return float64(maxInWindow) / float64(len(times))
}

// accountRecency measures the share of distinct submitting accounts
// created shortly before their submission
func (d *Detector) accountRecency(members []model.ExtractedArgument, accounts AccountSignals, now time.Time) float64 {
	if len(accounts) == 0 {
		return 0
	}

	seen := make(map[string]bool)
	recent := 0
	total := 0
	for _, m := range members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		total++

		created, ok := accounts[m.UserID]
		if !ok {
			continue
		}
		at := m.CreatedAt
		if at.IsZero() {
			at = now
		}
		if at.Sub(created) < recentAccountAge {
			recent++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(recent) / float64(total)
}
