package model

import "time"

// TelemetryEvent is one usage event ingested from the SDK.
type TelemetryEvent struct {
	ID           string    `json:"id" db:"id"`
	ClientID     string    `json:"client_id" db:"client_id"`
	SDKVersion   string    `json:"sdk_version" db:"sdk_version"`
	EventType    string    `json:"event_type" db:"event_type"`
	Success      bool      `json:"success" db:"success"`
	ErrorType    string    `json:"error_type,omitempty" db:"error_type"`
	ChainID      *int64    `json:"chain_id,omitempty" db:"chain_id"`
	MetadataJSON string    `json:"-" db:"metadata_json"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ActionStat is the per-event-type breakdown in the stats response.
type ActionStat struct {
	Action      string  `json:"action"`
	Count       int64   `json:"count"`
	SuccessRate float64 `json:"success_rate"`
}

// VersionStat is the SDK version distribution in the stats response.
type VersionStat struct {
	Version string `json:"version"`
	Count   int64  `json:"count"`
}

// DailyStat is one day's usage in the stats response.
type DailyStat struct {
	Date          string `json:"date"`
	Events        int64  `json:"events"`
	UniqueClients int64  `json:"unique_clients"`
}

// Stats is the aggregated telemetry view served to the dashboard.
type Stats struct {
	TotalEvents         int64         `json:"totalEvents"`
	UniqueClients       int64         `json:"uniqueClients"`
	SuccessRate         float64       `json:"successRate"`
	ActionBreakdown     []ActionStat  `json:"actionBreakdown"`
	VersionDistribution []VersionStat `json:"versionDistribution"`
	DailyUsage          []DailyStat   `json:"dailyUsage"`
}
