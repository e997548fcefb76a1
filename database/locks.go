package database

import (
	"gorm.io/gorm"
)

// Advisory lock keys. Postgres advisory locks are keyed by int64; the two-key
// form scopes them per concern so unrelated subsystems never contend.
const (
	// LockClassPrerequisites serializes all prerequisite-graph writes. The
	// cycle check walks the whole edge relation, so a per-pair lock would not
	// close the time-of-check/time-of-use gap across longer chains.
	LockClassPrerequisites int32 = 1001

	// LockClassCurriculum serializes ordering rewrites per grade.
	LockClassCurriculum int32 = 1002
)

// AdvisoryXactLock takes a transaction-scoped advisory lock on (class, key).
// The lock is released automatically at commit or rollback.
//
// Only PostgreSQL supports advisory locks; on other dialects (the sqlite
// test store) this is a no-op and the surrounding transaction is what
// serializes writers.
func AdvisoryXactLock(tx *gorm.DB, class int32, key int32) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", class, key).Error
}
