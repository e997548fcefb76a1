package cron

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/escolarhq/academico-api/model"
)

// PurgeDeletedSubjects hard-deletes subjects that were soft-deleted longer
// than the retention window ago and are no longer referenced by any grade
// assignment or prerequisite edge. Referenced rows are kept so history-style
// joins never lose their target.
func (m *CronManager) PurgeDeletedSubjects() {
	jobName := "purge_deleted_subjects"
	cutoff := time.Now().AddDate(0, 0, -m.purgeDays)

	var candidates []model.Subject
	err := m.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&candidates).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query deleted subjects: %w", err))
		return
	}

	if len(candidates) == 0 {
		m.logJobComplete(jobName, "No subjects to purge", nil)
		return
	}

	purged := 0
	skipped := 0

	for _, subject := range candidates {
		var refs int64
		if err := m.db.Model(&model.GradeSubject{}).Where("subject_id = ?", subject.ID).Count(&refs).Error; err != nil {
			log.Printf("[CRON] Failed to check assignments for subject %d: %v", subject.ID, err)
			skipped++
			continue
		}
		if refs > 0 {
			skipped++
			continue
		}

		var edges int64
		if err := m.db.Model(&model.SubjectPrerequisite{}).
			Where("subject_id = ? OR prerequisite_id = ?", subject.ID, subject.ID).
			Count(&edges).Error; err != nil {
			log.Printf("[CRON] Failed to check prerequisite edges for subject %d: %v", subject.ID, err)
			skipped++
			continue
		}
		if edges > 0 {
			skipped++
			continue
		}

		if err := m.db.Unscoped().Delete(&model.Subject{}, subject.ID).Error; err != nil {
			log.Printf("[CRON] Failed to purge subject %d: %v", subject.ID, err)
			skipped++
			continue
		}
		purged++
	}

	metadata, _ := json.Marshal(map[string]int{
		"purged":  purged,
		"skipped": skipped,
	})
	m.logJobComplete(jobName, fmt.Sprintf("Purged %d subjects (%d skipped)", purged, skipped), metadata)
}

// CleanupJobLogs trims cron job log rows older than 60 days
func (m *CronManager) CleanupJobLogs() {
	jobName := "cleanup_job_logs"
	cutoff := time.Now().AddDate(0, 0, -60)

	result := m.db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old job logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d old job log rows", result.RowsAffected), nil)
}
