package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletpilot/pilot/internal/model"
)

// CreateTelemetryEvent inserts one SDK usage event.
func (s *Store) CreateTelemetryEvent(ctx context.Context, e *model.TelemetryEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.MetadataJSON == "" {
		e.MetadataJSON = "{}"
	}
	e.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO telemetry_events
		(id, client_id, sdk_version, event_type, success, error_type, chain_id, metadata_json, created_at)
		VALUES
		(:id, :client_id, :sdk_version, :event_type, :success, :error_type, :chain_id, :metadata_json, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns the most recent events, newest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, limit int) ([]model.TelemetryEvent, error) {
	var events []model.TelemetryEvent
	q := s.rebind("SELECT * FROM telemetry_events ORDER BY created_at DESC LIMIT ?")
	if err := s.db.SelectContext(ctx, &events, q, limit); err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	return events, nil
}

// CountTelemetryEvents returns the number of telemetry events in total.
func (s *Store) CountTelemetryEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM telemetry_events"); err != nil {
		return 0, fmt.Errorf("count telemetry events: %w", err)
	}
	return n, nil
}

// TelemetryStats aggregates events since the given cutoff into the
// dashboard stats view. Daily buckets cover the most recent dailyDays days.
func (s *Store) TelemetryStats(ctx context.Context, since time.Time, dailyDays int) (*model.Stats, error) {
	stats := &model.Stats{
		ActionBreakdown:     []model.ActionStat{},
		VersionDistribution: []model.VersionStat{},
		DailyUsage:          []model.DailyStat{},
	}

	totalsQ := s.rebind(`SELECT COUNT(*), COUNT(DISTINCT client_id)
		FROM telemetry_events WHERE created_at >= ?`)
	row := s.db.QueryRowxContext(ctx, totalsQ, since)
	if err := row.Scan(&stats.TotalEvents, &stats.UniqueClients); err != nil {
		return nil, fmt.Errorf("telemetry totals: %w", err)
	}

	var successCount int64
	successQ := s.rebind(`SELECT COUNT(*) FROM telemetry_events
		WHERE created_at >= ? AND success = ?`)
	if err := s.db.GetContext(ctx, &successCount, successQ, since, true); err != nil {
		return nil, fmt.Errorf("telemetry success count: %w", err)
	}
	if stats.TotalEvents > 0 {
		stats.SuccessRate = float64(successCount) / float64(stats.TotalEvents)
	}

	actionQ := s.rebind(`SELECT event_type,
			COUNT(*) AS total,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) AS succeeded
		FROM telemetry_events
		WHERE created_at >= ?
		GROUP BY event_type
		ORDER BY total DESC`)
	actionRows, err := s.db.QueryxContext(ctx, actionQ, since)
	if err != nil {
		return nil, fmt.Errorf("telemetry action breakdown: %w", err)
	}
	defer actionRows.Close()
	for actionRows.Next() {
		var action string
		var total, succeeded int64
		if err := actionRows.Scan(&action, &total, &succeeded); err != nil {
			return nil, fmt.Errorf("scan action breakdown: %w", err)
		}
		stat := model.ActionStat{Action: action, Count: total}
		if total > 0 {
			stat.SuccessRate = float64(succeeded) / float64(total)
		}
		stats.ActionBreakdown = append(stats.ActionBreakdown, stat)
	}
	if err := actionRows.Err(); err != nil {
		return nil, fmt.Errorf("action breakdown rows: %w", err)
	}

	versionQ := s.rebind(`SELECT sdk_version, COUNT(*)
		FROM telemetry_events
		WHERE created_at >= ?
		GROUP BY sdk_version
		ORDER BY COUNT(*) DESC`)
	versionRows, err := s.db.QueryxContext(ctx, versionQ, since)
	if err != nil {
		return nil, fmt.Errorf("telemetry version distribution: %w", err)
	}
	defer versionRows.Close()
	for versionRows.Next() {
		var v model.VersionStat
		if err := versionRows.Scan(&v.Version, &v.Count); err != nil {
			return nil, fmt.Errorf("scan version distribution: %w", err)
		}
		stats.VersionDistribution = append(stats.VersionDistribution, v)
	}
	if err := versionRows.Err(); err != nil {
		return nil, fmt.Errorf("version distribution rows: %w", err)
	}

	// Per-day range queries instead of date truncation, which has no
	// portable SQL spelling across sqlite and postgres.
	dayQ := s.rebind(`SELECT COUNT(*), COUNT(DISTINCT client_id)
		FROM telemetry_events WHERE created_at >= ? AND created_at < ?`)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := dailyDays - 1; i >= 0; i-- {
		dayStart := today.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var day model.DailyStat
		day.Date = dayStart.Format("2006-01-02")
		row := s.db.QueryRowxContext(ctx, dayQ, dayStart, dayEnd)
		if err := row.Scan(&day.Events, &day.UniqueClients); err != nil {
			return nil, fmt.Errorf("daily usage for %s: %w", day.Date, err)
		}
		stats.DailyUsage = append(stats.DailyUsage, day)
	}

	return stats, nil
}
