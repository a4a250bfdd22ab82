package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/db"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/notify"
)

const (
	AdvisoryRetention = "retention"
	AdvisoryPromotion = "promotion"
)

// EvaluationService runs the retention and promotion rules over the latest
// metrics and writes advisory records. Advisories are informational; role
// changes still go through a separate administrative approval.
type EvaluationService struct {
	Store    *db.Store
	Notifier notify.Notifier
	Logger   zerolog.Logger
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

func (s *EvaluationService) Evaluate(ctx context.Context, debug bool) (RunSummary, error) {
	snapshots, err := s.Store.ListLatestSnapshots(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	candidates, err := s.Store.ListPromotionCandidates(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()

	var (
		advisories []models.Advisory
		riskCounts = map[RiskLevel]int{}
		atRisk     int
	)
	for _, snap := range snapshots {
		violations, risk := EvaluateRetention(snap)
		riskCounts[risk]++
		if risk == RiskLow {
			continue
		}
		atRisk++
		detail, _ := json.Marshal(map[string]any{
			"violations": violations,
			"window":     snap.WindowDays,
		})
		advisories = append(advisories, models.Advisory{
			ID:        uuid.NewString(),
			Kind:      AdvisoryRetention,
			SubjectID: snap.LeadID,
			Outcome:   string(risk),
			Detail:    detail,
			CreatedAt: time.Now().UTC(),
		})
		if risk == RiskCritical && s.Notifier != nil {
			ev := notify.Event{
				Kind:    notify.KindRetentionRisk,
				LeadID:  snap.LeadID,
				Message: "retention risk critical",
				At:      time.Now().UTC(),
			}
			if err := s.Notifier.Notify(ctx, ev); err != nil {
				s.Logger.Warn().Err(err).Str("lead_id", snap.LeadID).Msg("retention alert failed")
			}
		}
		if debug && len(summary.Samples) < 5 {
			summary.Samples = append(summary.Samples, map[string]any{
				"lead_id":    snap.LeadID,
				"risk":       risk,
				"violations": violations,
			})
		}
	}

	actionCounts := map[PromotionAction]int{}
	eligibleCount := 0
	for _, c := range candidates {
		res := ScorePromotion(c)
		if !res.Eligible {
			continue
		}
		eligibleCount++
		actionCounts[res.Action]++
		detail, _ := json.Marshal(res)
		advisories = append(advisories, models.Advisory{
			ID:        uuid.NewString(),
			Kind:      AdvisoryPromotion,
			SubjectID: c.WorkerID,
			Outcome:   string(res.Action),
			Detail:    detail,
			CreatedAt: time.Now().UTC(),
		})
	}

	if len(advisories) > 0 {
		if _, err := s.Store.InsertAdvisories(ctx, advisories); err != nil {
			return summary, err
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":     "retention_sweep",
		"leads":    len(snapshots),
		"at_risk":  atRisk,
		"by_level": riskCounts,
		"time":     time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "promotion_sweep",
		"candidates": len(candidates),
		"eligible":   eligibleCount,
		"by_action":  actionCounts,
		"time":       time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"advisories": len(advisories),
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["leads_evaluated"] = len(snapshots)
	summary.Counts["leads_at_risk"] = atRisk
	summary.Counts["candidates_scored"] = len(candidates)
	summary.Counts["candidates_eligible"] = eligibleCount
	summary.Counts["advisories_written"] = len(advisories)
	return summary, nil
}
