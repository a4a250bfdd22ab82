package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gogobubblesmobilewash/GoGoBubblesDashboard-sub000/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ResetImportTables(ctx context.Context) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `TRUNCATE jobs, shifts, metrics_snapshots RESTART IDENTITY`)
		return err
	})
}

func (s *Store) InsertJobs(ctx context.Context, jobs []models.JobRecord) (int64, error) {
	rows := make([][]any, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []any{j.ID, j.ScheduledAt, j.Status, j.WorkerID, j.ServiceType, string(j.Category), j.Zone})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"jobs"}, []string{"id", "scheduled_at", "status", "worker_id", "service_type", "category", "zone"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertShifts(ctx context.Context, shifts []models.Shift) (int64, error) {
	rows := make([][]any, 0, len(shifts))
	for _, sh := range shifts {
		rows = append(rows, []any{sh.ID, sh.LeadID, sh.Zone, sh.StartsAt, sh.EndsAt, string(sh.Status)})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"shifts"}, []string{"id", "lead_id", "zone", "starts_at", "ends_at", "status"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertMetricsSnapshots(ctx context.Context, snaps []models.PerformanceMetricsSnapshot) (int64, error) {
	rows := make([][]any, 0, len(snaps))
	for _, m := range snaps {
		rows = append(rows, []any{m.LeadID, m.WindowDays, m.AvgRating, m.OnTimeRate, m.ComplaintCount, m.MissedCheckins, m.CapturedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"metrics_snapshots"}, []string{"lead_id", "window_days", "avg_rating", "on_time_rate", "complaint_count", "missed_checkins", "captured_at"}, pgx.CopyFromRows(rows))
}

func (s *Store) ListJobs(ctx context.Context, zone, status string, limit, offset int) ([]models.JobRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, scheduled_at, status, worker_id, service_type, category, zone FROM jobs`
	var args []any
	var wheres []string
	if zone != "" {
		args = append(args, zone)
		wheres = append(wheres, fmt.Sprintf("zone = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY scheduled_at ASC NULLS LAST LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobRecord
	for rows.Next() {
		var j models.JobRecord
		var category string
		if err := rows.Scan(&j.ID, &j.ScheduledAt, &j.Status, &j.WorkerID, &j.ServiceType, &category, &j.Zone); err != nil {
			return nil, err
		}
		j.Category = models.ServiceCategory(category)
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id string) (models.JobRecord, error) {
	var j models.JobRecord
	var category string
	err := s.Pool.QueryRow(ctx, `SELECT id, scheduled_at, status, worker_id, service_type, category, zone FROM jobs WHERE id = $1`, id).
		Scan(&j.ID, &j.ScheduledAt, &j.Status, &j.WorkerID, &j.ServiceType, &category, &j.Zone)
	if err != nil {
		return models.JobRecord{}, err
	}
	j.Category = models.ServiceCategory(category)
	return j, nil
}

// GetActiveShift returns the lead's active shift, or nil when off duty.
// A unique partial index on (lead_id) WHERE status = 'active' backs the
// one-active-shift-per-lead invariant.
func (s *Store) GetActiveShift(ctx context.Context, leadID string) (*models.Shift, error) {
	var sh models.Shift
	var status string
	err := s.Pool.QueryRow(ctx, `SELECT id, lead_id, zone, starts_at, ends_at, status FROM shifts WHERE lead_id = $1 AND status = 'active' LIMIT 1`, leadID).
		Scan(&sh.ID, &sh.LeadID, &sh.Zone, &sh.StartsAt, &sh.EndsAt, &status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sh.Status = models.ShiftStatus(status)
	return &sh, nil
}

func (s *Store) ListShifts(ctx context.Context, leadID, status string) ([]models.Shift, error) {
	query := `SELECT id, lead_id, zone, starts_at, ends_at, status FROM shifts`
	var args []any
	var wheres []string
	if leadID != "" {
		args = append(args, leadID)
		wheres = append(wheres, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY starts_at DESC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Shift
	for rows.Next() {
		var sh models.Shift
		var st string
		if err := rows.Scan(&sh.ID, &sh.LeadID, &sh.Zone, &sh.StartsAt, &sh.EndsAt, &st); err != nil {
			return nil, err
		}
		sh.Status = models.ShiftStatus(st)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// EndShift is the explicit check-out path.
func (s *Store) EndShift(ctx context.Context, shiftID string) error {
	ct, err := s.Pool.Exec(ctx, `UPDATE shifts SET status = 'ended' WHERE id = $1 AND status = 'active'`, shiftID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// EndExpiredShifts closes shifts whose end timestamp has passed. Run from
// the cron sweep.
func (s *Store) EndExpiredShifts(ctx context.Context, now time.Time) (int64, error) {
	ct, err := s.Pool.Exec(ctx, `UPDATE shifts SET status = 'ended' WHERE status = 'active' AND ends_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *Store) ListInterventionsByLead(ctx context.Context, leadID string, since time.Time) ([]models.Intervention, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, lead_id, worker_id, job_id, type, takeover, duration_min, labor_percent, notes, photo_refs, tier, wrapup_duration, auto_submitted, created_at
		FROM interventions
		WHERE lead_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, leadID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Intervention
	for rows.Next() {
		var iv models.Intervention
		var ivType, takeover string
		if err := rows.Scan(&iv.ID, &iv.LeadID, &iv.WorkerID, &iv.JobID, &ivType, &takeover, &iv.DurationMin, &iv.LaborPercent, &iv.Notes, &iv.PhotoRefs, &iv.Tier, &iv.WrapUpDuration, &iv.AutoSubmitted, &iv.CreatedAt); err != nil {
			return nil, err
		}
		iv.Type = models.InterventionType(ivType)
		iv.Takeover = models.TakeoverLevel(takeover)
		out = append(out, iv)
	}
	return out, rows.Err()
}

// RecordIntervention writes a submitted (or auto-submitted) intervention and
// retires any draft left over from the wrap-up session, in one transaction.
// Interventions are immutable once written; there is no update path.
func (s *Store) RecordIntervention(ctx context.Context, iv models.Intervention) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO interventions (id, lead_id, worker_id, job_id, type, takeover, duration_min, labor_percent, notes, photo_refs, tier, wrapup_duration, auto_submitted, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, iv.ID, iv.LeadID, iv.WorkerID, iv.JobID, string(iv.Type), string(iv.Takeover), iv.DurationMin, iv.LaborPercent, iv.Notes, iv.PhotoRefs, iv.Tier, iv.WrapUpDuration, iv.AutoSubmitted, iv.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE wrapup_drafts SET state = 'submitted' WHERE lead_id = $1 AND job_id = $2 AND state = 'draft'`, iv.LeadID, iv.JobID)
		return err
	})
}

// SaveWrapUpDraft upserts the autosave buffer for a session. Best-effort
// callers swallow the error.
func (s *Store) SaveWrapUpDraft(ctx context.Context, d models.WrapUpDraft) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO wrapup_drafts (session_id, lead_id, job_id, notes, tags, photo_refs, remaining, state, saved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'draft',$8)
		ON CONFLICT (session_id) DO UPDATE SET
			notes = EXCLUDED.notes,
			tags = EXCLUDED.tags,
			photo_refs = EXCLUDED.photo_refs,
			remaining = EXCLUDED.remaining,
			saved_at = EXCLUDED.saved_at
	`, d.SessionID, d.LeadID, d.JobID, d.Notes, d.Tags, d.PhotoRefs, d.Remaining, d.SavedAt)
	return err
}

// ListLatestSnapshots returns the most recent metrics snapshot per lead.
func (s *Store) ListLatestSnapshots(ctx context.Context) ([]models.PerformanceMetricsSnapshot, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT ON (lead_id) lead_id, window_days, avg_rating, on_time_rate, complaint_count, missed_checkins, captured_at
		FROM metrics_snapshots
		ORDER BY lead_id, captured_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PerformanceMetricsSnapshot
	for rows.Next() {
		var m models.PerformanceMetricsSnapshot
		if err := rows.Scan(&m.LeadID, &m.WindowDays, &m.AvgRating, &m.OnTimeRate, &m.ComplaintCount, &m.MissedCheckins, &m.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetLatestSnapshot(ctx context.Context, leadID string) (models.PerformanceMetricsSnapshot, error) {
	var m models.PerformanceMetricsSnapshot
	err := s.Pool.QueryRow(ctx, `
		SELECT lead_id, window_days, avg_rating, on_time_rate, complaint_count, missed_checkins, captured_at
		FROM metrics_snapshots WHERE lead_id = $1 ORDER BY captured_at DESC LIMIT 1
	`, leadID).Scan(&m.LeadID, &m.WindowDays, &m.AvgRating, &m.OnTimeRate, &m.ComplaintCount, &m.MissedCheckins, &m.CapturedAt)
	return m, err
}

// ListPromotionCandidates reads worker aggregates maintained by the order
// system. The scorer treats them as plain input.
func (s *Store) ListPromotionCandidates(ctx context.Context) ([]models.PromotionCandidate, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT worker_id, role, completed_jobs, rating, total_earnings, tenure_days, days_since_promotion
		FROM worker_aggregates
		ORDER BY worker_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PromotionCandidate
	for rows.Next() {
		var c models.PromotionCandidate
		if err := rows.Scan(&c.WorkerID, &c.Role, &c.CompletedJobs, &c.Rating, &c.TotalEarnings, &c.TenureDays, &c.DaysSincePromotion); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertAdvisories(ctx context.Context, advisories []models.Advisory) (int64, error) {
	rows := make([][]any, 0, len(advisories))
	for _, a := range advisories {
		rows = append(rows, []any{a.ID, a.Kind, a.SubjectID, a.Outcome, a.Detail, a.CreatedAt})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"advisories"}, []string{"id", "kind", "subject_id", "outcome", "detail", "created_at"}, pgx.CopyFromRows(rows))
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		id       string
		started  time.Time
		finished *time.Time
		status   string
		summary  []byte
	)
	if err := row.Scan(&id, &started, &finished, &status, &summary); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          id,
		"started_at":  started,
		"finished_at": finished,
		"status":      status,
		"summary":     summary,
	}, nil
}
