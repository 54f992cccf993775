package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/cache"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
)

// Namespace for deterministic evidence ids: assessing the same claim
// text twice yields the same ids, which keeps store upserts idempotent.
var evidenceNamespace = uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

// Validator scores each claim's supporting evidence for credibility.
// Assessment is a pure function of the claim text plus a knowledge-base
// lookup, so results are cacheable.
type Validator struct {
	kb         KnowledgeBase
	entities   *nlp.EntityExtractor
	cache      cache.Cache
	maxWorkers int
	logger     *log.Logger
}

// NewValidator creates a validator over the given knowledge base. The
// cache is optional and scoped by the caller (one per synthesis job).
func NewValidator(kb KnowledgeBase, c cache.Cache, maxWorkers int, logger *log.Logger) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}
	if logger == nil {
		logger = log.New(log.Writer(), "evidence: ", log.LstdFlags)
	}
	return &Validator{
		kb:         kb,
		entities:   nlp.NewEntityExtractor(),
		cache:      c,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// Assess classifies and scores the evidentiary spans of one claim.
// Knowledge-base failures and timeouts degrade the affected span to
// unverified; the assessment itself never fails.
func (v *Validator) Assess(ctx context.Context, claimID, text string) model.EvidenceAssessment {
	if cached, ok := v.cachedAssessment(claimID, text); ok {
		return cached
	}

	mentions := v.entities.Extract(text)
	assessment := model.EvidenceAssessment{ClaimID: claimID}

	for _, m := range mentions {
		status, err := v.kb.Lookup(ctx, m.Source, text)
		if err != nil {
			if errors.Is(err, model.ErrLookupTimeout) {
				v.logger.Printf("lookup timeout for %q, degrading to unverified", m.Source)
			}
			status = model.StatusUnverified
		}

		assessment.Evidence = append(assessment.Evidence, model.Evidence{
			ID:               uuid.NewSHA1(evidenceNamespace, []byte(claimID+"|"+m.Source)).String(),
			ClaimID:          claimID,
			Type:             m.Type,
			Source:           m.Source,
			Status:           status,
			CredibilityScore: model.CredibilityScore(m.Type, status),
		})
	}

	v.storeAssessment(claimID, text, assessment)
	return assessment
}

// AssessAll assesses many claims concurrently with a bounded number of
// in-flight lookups.
func (v *Validator) AssessAll(ctx context.Context, claims []model.Claim) []model.EvidenceAssessment {
	if len(claims) == 0 {
		return nil
	}

	assessments := make([]model.EvidenceAssessment, len(claims))
	semaphore := make(chan struct{}, v.maxWorkers)
	var wg sync.WaitGroup

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c model.Claim) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				assessments[idx] = model.EvidenceAssessment{ClaimID: c.ID}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			assessments[idx] = v.Assess(ctx, c.ID, c.Text)
		}(i, claim)
	}

	wg.Wait()
	return assessments
}

// MeanCredibility averages the credibility of an assessment's evidence.
// Claims with no detected evidence score 0.
func MeanCredibility(assessments []model.EvidenceAssessment) float64 {
	total := 0.0
	count := 0
	for _, a := range assessments {
		for _, e := range a.Evidence {
			total += e.CredibilityScore
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func (v *Validator) cachedAssessment(claimID, text string) (model.EvidenceAssessment, bool) {
	if v.cache == nil {
		return model.EvidenceAssessment{}, false
	}
	data, ok := v.cache.Get(cache.Key("assess", claimID+"|"+text))
	if !ok {
		return model.EvidenceAssessment{}, false
	}
	var assessment model.EvidenceAssessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		return model.EvidenceAssessment{}, false
	}
	return assessment, true
}

func (v *Validator) storeAssessment(claimID, text string, assessment model.EvidenceAssessment) {
	if v.cache == nil {
		return
	}
	data, err := json.Marshal(assessment)
	if err != nil {
		return
	}
	_ = v.cache.Set(cache.Key("assess", claimID+"|"+text), data, time.Hour)
}
