package cron

import (
	"log"
	"time"

	"github.com/escolarhq/academico-api/model"
	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CronManager manages the scheduled maintenance jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	purgeDays int
}

// NewCronManager creates a new cron manager. purgeDays is the retention
// window for soft-deleted subjects before the purge job removes them.
func NewCronManager(db *gorm.DB, purgeDays int) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		purgeDays: purgeDays,
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Daily at 2 AM: purge soft-deleted subjects past the retention window
	_, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("purge_deleted_subjects")
		m.PurgeDeletedSubjects()
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday at 3 AM: trim old cron job logs
	_, err = m.cron.AddFunc("0 0 3 * * 0", func() {
		m.logJobStart("cleanup_job_logs")
		m.CleanupJobLogs()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart records the beginning of a job run
func (m *CronManager) logJobStart(jobName string) {
	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    "started",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("[CRON] Failed to log job start for %s: %v", jobName, err)
	}
}

// logJobComplete records a successful job run
func (m *CronManager) logJobComplete(jobName, message string, metadata []byte) {
	now := time.Now()
	entry := model.CronJobLog{
		JobName:     jobName,
		Status:      "completed",
		StartedAt:   now,
		CompletedAt: &now,
		Message:     message,
		Metadata:    datatypes.JSON(metadata),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("[CRON] Failed to log job completion for %s: %v", jobName, err)
	}
}

// logJobError records a failed job run
func (m *CronManager) logJobError(jobName string, jobErr error) {
	now := time.Now()
	entry := model.CronJobLog{
		JobName:     jobName,
		Status:      "failed",
		StartedAt:   now,
		CompletedAt: &now,
		ErrorMsg:    jobErr.Error(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("[CRON] Failed to log job error for %s: %v", jobName, err)
	}
}
