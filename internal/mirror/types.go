// Package mirror defines the local persisted shapes of synced accounting records,
// the connection they belong to, and the sync run log.
package mirror

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// EnvironmentProduction is the live accounting environment.
	EnvironmentProduction = "production"

	// EnvironmentSandbox is the accounting developer sandbox.
	EnvironmentSandbox = "sandbox"
)

const (
	// SyncStatusFailed marks a run or connection whose last sync failed.
	SyncStatusFailed = "failed"

	// SyncStatusStarted marks a run that has been logged but not finalized.
	SyncStatusStarted = "started"

	// SyncStatusCompleted marks a run log entry that finished successfully.
	SyncStatusCompleted = "completed"

	// SyncStatusSuccess marks a connection whose last sync finished successfully.
	SyncStatusSuccess = "success"
)

// SyncType selects between an unrestricted scan and a modified-since scan.
type SyncType string

const (
	// SyncTypeDelta restricts the run to records modified after the watermark.
	SyncTypeDelta SyncType = "delta"

	// SyncTypeFull fetches every record regardless of modification time.
	SyncTypeFull SyncType = "full"
)

// Connection binds an organization to one tenant of the external accounting system.
type Connection struct {
	// ID is the local connection identifier.
	ID uint `gorm:"primaryKey" json:"id"`

	// OrganizationID is the portal organization that owns the connection.
	OrganizationID string `gorm:"index;size:64;not null" json:"organization_id"`

	// RealmID is the tenant (company) identifier in the external system.
	RealmID string `gorm:"size:64;not null" json:"realm_id"`

	// AccessToken is the bearer credential, or a reference that resolves to one.
	AccessToken string `gorm:"type:text" json:"-"`

	// Environment is either sandbox or production.
	Environment string `gorm:"size:20;not null;default:sandbox" json:"environment"`

	// IsActive marks the connection used by sync runs.
	IsActive bool `gorm:"index;not null" json:"is_active"`

	// LastSyncAt is the delta watermark: completion time of the last successful run.
	LastSyncAt *time.Time `json:"last_sync_at"`

	// LastSyncStatus is the terminal status of the most recent run.
	LastSyncStatus string `gorm:"size:20" json:"last_sync_status"`

	// LastSyncError is the proximate cause of the most recent failed run.
	LastSyncError string `gorm:"type:text" json:"last_sync_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName implements gorm's Tabler.
func (Connection) TableName() string { return "quickbooks_connections" }

// SyncRun is the log entry for one invocation of the sync engine.
type SyncRun struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// ConnectionID references the connection being synced.
	ConnectionID uint `gorm:"index;not null" json:"connection_id"`

	// TriggeredBy is the user (or system) identity that started the run.
	TriggeredBy string `gorm:"size:128" json:"triggered_by"`

	// SyncType is the sync type the caller asked for.
	SyncType SyncType `gorm:"size:10;not null" json:"sync_type"`

	// EffectiveSyncType is the sync type actually performed.
	EffectiveSyncType SyncType `gorm:"size:10;not null" json:"effective_sync_type"`

	// Status moves from started to exactly one of completed or failed.
	Status string `gorm:"size:20;not null" json:"status"`

	RecordsFetched int `json:"records_fetched"`
	RecordsCreated int `json:"records_created"`
	RecordsUpdated int `json:"records_updated"`
	RecordsFailed  int `json:"records_failed"`

	// EntityStats is the per-kind breakdown, written at finalization.
	EntityStats datatypes.JSON `json:"entity_stats"`

	// TransactionID is the diagnostic id of the first successful remote response.
	TransactionID string `gorm:"size:128" json:"transaction_id"`

	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// ErrorMessage is set when the run failed.
	ErrorMessage string `gorm:"type:text" json:"error_message"`
}

// TableName implements gorm's Tabler.
func (SyncRun) TableName() string { return "quickbooks_sync_log" }

// SyncFailure records one record that could not be mapped or reconciled during a run.
type SyncFailure struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SyncRunID    uint           `gorm:"index;not null" json:"sync_run_id"`
	ConnectionID uint           `gorm:"index;not null" json:"connection_id"`
	EntityKind   Kind           `gorm:"size:32;not null" json:"entity_kind"`
	ExternalID   string         `gorm:"size:64" json:"external_id"`
	Message      string         `gorm:"type:text" json:"message"`
	Payload      datatypes.JSON `json:"payload"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName implements gorm's Tabler.
func (SyncFailure) TableName() string { return "quickbooks_sync_failures" }
