package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/escolarhq/academico-api/utils"
	"github.com/google/uuid"
)

// AuditEntry describes one mutation for the audit trail: who did what, to
// which record, with before/after snapshots.
type AuditEntry struct {
	ID       uuid.UUID   `json:"id"`
	ActorID  uint        `json:"actor_id"`
	Action   string      `json:"action"`
	Module   string      `json:"module"`
	Table    string      `json:"table"`
	RecordID uint        `json:"record_id"`
	Before   interface{} `json:"before,omitempty"`
	After    interface{} `json:"after,omitempty"`
	Result   string      `json:"result"` // success, failure
	Message  string      `json:"message"`
	At       time.Time   `json:"at"`
}

// AuditSink receives audit entries after mutations. Handlers call it once
// per successful mutation; the core services never do.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

// LogAuditSink writes audit entries as JSON lines through the application
// file logger. Durable audit storage lives outside this backend.
type LogAuditSink struct {
	logger *utils.Logger
}

// NewLogAuditSink creates an audit sink backed by the file logger
func NewLogAuditSink(logger *utils.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger}
}

// Record assigns the entry an id and timestamp and writes it out
func (s *LogAuditSink) Record(ctx context.Context, entry AuditEntry) {
	entry.ID = uuid.New()
	entry.At = time.Now()

	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.Logf("AUDIT marshal failure for %s/%s: %v", entry.Module, entry.Action, err)
		return
	}
	s.logger.Logf("AUDIT %s", payload)
}
