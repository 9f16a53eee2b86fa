package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// auditPreviewLength is how many runes of a chunk the audit log shows.
const auditPreviewLength = 100

// DefenseConfig configures the injection defense stage.
type DefenseConfig struct {
	// Probes are known instruction-override and persona-override phrasings.
	Probes []string

	// Threshold blocks a candidate whose affinity is at or above it.
	Threshold float64

	// AuditTop is how many candidates the audit log lists by affinity.
	AuditTop int
}

// InjectionDefense removes candidates that read like prompt injections.
//
// Affinity is scored against the probes, never against the user query,
// so a chunk can be highly relevant and still be blocked.
type InjectionDefense struct {
	scorer driven.RelevanceScorer
	cfg    DefenseConfig
}

// NewInjectionDefense creates a defense stage over the given scorer.
func NewInjectionDefense(scorer driven.RelevanceScorer, cfg DefenseConfig) *InjectionDefense {
	return &InjectionDefense{
		scorer: scorer,
		cfg:    cfg,
	}
}

// Threshold returns the configured block threshold.
func (d *InjectionDefense) Threshold() float64 {
	return d.cfg.Threshold
}

// Screen computes each candidate's affinity as the maximum score over all
// probes and splits the candidates into safe and blocked. Safe candidates
// keep their input order.
func (d *InjectionDefense) Screen(ctx context.Context, cands []domain.Candidate) (*domain.Screening, error) {
	if len(cands) == 0 {
		return &domain.Screening{}, nil
	}
	logger.Section("Injection Defense")

	scored := make([]domain.Candidate, len(cands))
	copy(scored, cands)
	for i := range scored {
		scored[i].Affinity = math.Inf(-1)
	}

	texts := candidateTexts(scored)
	for _, probe := range d.cfg.Probes {
		scores, err := d.scorer.Score(ctx, probe, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: probe scoring: %w", domain.ErrScorerUnavailable, err)
		}
		if len(scores) != len(scored) {
			return nil, fmt.Errorf("%w: probe returned %d scores for %d candidates",
				domain.ErrScorerUnavailable, len(scores), len(scored))
		}
		for i, s := range scores {
			if s > scored[i].Affinity {
				scored[i].Affinity = s
			}
		}
	}

	result := &domain.Screening{}
	for _, c := range scored {
		if d.blocks(c) {
			result.Blocked = append(result.Blocked, c)
		} else {
			result.Safe = append(result.Safe, c)
		}
	}

	d.audit(scored)
	if len(result.Blocked) > 0 {
		logger.Warn("Blocked %d of %d candidates as potential injections", len(result.Blocked), len(scored))
	}
	return result, nil
}

func (d *InjectionDefense) blocks(c domain.Candidate) bool {
	return c.Affinity >= d.cfg.Threshold
}

// audit logs the most dangerous candidates regardless of the decision.
func (d *InjectionDefense) audit(scored []domain.Candidate) {
	if d.cfg.AuditTop <= 0 {
		return
	}

	byDanger := make([]domain.Candidate, len(scored))
	copy(byDanger, scored)
	sort.SliceStable(byDanger, func(i, j int) bool {
		return byDanger[i].Affinity > byDanger[j].Affinity
	})

	logger.Info("--- Top %d chunks by injection affinity (threshold=%.4f) ---",
		min(d.cfg.AuditTop, len(byDanger)), d.cfg.Threshold)
	for i, c := range domain.Cap(byDanger, d.cfg.AuditTop) {
		status := "ok"
		if d.blocks(c) {
			status = "BLOCKED"
		}
		logger.Info("[%d] inj=%.4f rel=%.4f [%s] %s: %s",
			i+1, c.Affinity, c.Relevance, status, c.Source(), preview(c.Text, auditPreviewLength))
	}
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
