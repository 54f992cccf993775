package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/util"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/worker"
)

// KnowledgeBase resolves the verification status of a cited source in
// the context of a claim. Lookups are bounded: a timeout returns
// model.ErrLookupTimeout and the caller degrades to unverified rather
// than failing the assessment.
type KnowledgeBase interface {
	Lookup(ctx context.Context, source, claimText string) (model.VerificationStatus, error)
}

// StaticKnowledgeBase resolves status against in-process registries:
// a verified-source whitelist, a contested-claims registry, and a
// ground-truth contradiction store. It never blocks on I/O.
type StaticKnowledgeBase struct {
	verified    []string          // Normalized recognized sources
	contested   []string          // Normalized contested-claim fragments
	groundTruth map[string]string // Normalized claim pattern -> contradicting fact
}

// NewStaticKnowledgeBase creates a knowledge base from configured
// registries
func NewStaticKnowledgeBase(cfg model.KnowledgeConfig) *StaticKnowledgeBase {
	kb := &StaticKnowledgeBase{
		groundTruth: make(map[string]string),
	}
	for _, s := range cfg.VerifiedSources {
		kb.verified = append(kb.verified, nlp.Normalize(s))
	}
	for _, c := range cfg.Contested {
		kb.contested = append(kb.contested, nlp.Normalize(c))
	}
	for pattern, fact := range cfg.GroundTruth {
		kb.groundTruth[nlp.Normalize(pattern)] = fact
	}
	return kb
}

// Lookup resolves status by registry precedence: contradicted beats
// disputed beats verified; anything unmatched stays unverified.
func (kb *StaticKnowledgeBase) Lookup(_ context.Context, source, claimText string) (model.VerificationStatus, error) {
	claim := nlp.Normalize(claimText)
	src := nlp.Normalize(source)

	for pattern := range kb.groundTruth {
		if pattern != "" && strings.Contains(claim, pattern) {
			return model.StatusFalse, nil
		}
	}
	for _, contested := range kb.contested {
		if contested != "" && (strings.Contains(claim, contested) || strings.Contains(src, contested)) {
			return model.StatusDisputed, nil
		}
	}
	for _, v := range kb.verified {
		if v != "" && (strings.Contains(src, v) || strings.Contains(v, src) && src != "") {
			return model.StatusVerified, nil
		}
	}

	return model.StatusUnverified, nil
}

// HTTPKnowledgeBase layers remote source verification over the static
// registries. URL-shaped sources are checked for reachability with a
// bounded timeout, per-host rate limiting, and robots.txt compliance;
// reachable sources on recognized hosts escalate to verified.
type HTTPKnowledgeBase struct {
	static     *StaticKnowledgeBase
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	timeout    time.Duration
	userAgent  string
}

// NewHTTPKnowledgeBase creates an HTTP-backed knowledge base
func NewHTTPKnowledgeBase(cfg model.KnowledgeConfig) *HTTPKnowledgeBase {
	timeout := time.Duration(cfg.LookupTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}

	return &HTTPKnowledgeBase{
		static: NewStaticKnowledgeBase(cfg),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   worker.NewLimiter(rps, 5),
		robots:    util.NewRobotsChecker(cfg.UserAgent, timeout),
		timeout:   timeout,
		userAgent: cfg.UserAgent,
	}
}

// Lookup checks the static registries first, then escalates URL-shaped
// sources via a remote reachability check.
func (kb *HTTPKnowledgeBase) Lookup(ctx context.Context, source, claimText string) (model.VerificationStatus, error) {
	status, err := kb.static.Lookup(ctx, source, claimText)
	if err != nil || status != model.StatusUnverified {
		return status, err
	}

	rawURL, ok := sourceURL(source)
	if !ok {
		return model.StatusUnverified, nil
	}

	ctx, cancel := context.WithTimeout(ctx, kb.timeout)
	defer cancel()

	if err := kb.limiter.Wait(ctx, rawURL); err != nil {
		return model.StatusUnverified, model.ErrLookupTimeout
	}
	if !kb.robots.IsAllowed(ctx, rawURL) {
		return model.StatusUnverified, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return model.StatusUnverified, nil
	}
	req.Header.Set("User-Agent", kb.userAgent)

	resp, err := kb.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.StatusUnverified, model.ErrLookupTimeout
		}
		return model.StatusUnverified, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 && recognizedHost(rawURL) {
		return model.StatusVerified, nil
	}

	return model.StatusUnverified, nil
}

// sourceURL reports whether a cited source is URL-shaped
func sourceURL(source string) (string, bool) {
	source = strings.TrimSpace(source)
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return "", false
	}
	if _, err := url.Parse(source); err != nil {
		return "", false
	}
	return source, true
}

// recognizedHost restricts remote escalation to institutional hosts.
// Reachability alone never verifies a source.
func recognizedHost(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return strings.HasSuffix(host, ".gov") ||
		strings.HasSuffix(host, ".edu") ||
		strings.HasSuffix(host, ".ac.uk") ||
		strings.HasSuffix(host, ".gov.uk")
}
