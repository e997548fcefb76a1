package model

import (
	"time"

	"gorm.io/gorm"
)

// Level represents an academic stage grouping grades (e.g., Primary, Secondary)
type Level struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`
	SortOrder int            `gorm:"default:0" json:"order"`

	// Relationships
	Grades []Grade `gorm:"foreignKey:LevelID;constraint:OnDelete:CASCADE" json:"grades,omitempty"`
}

// TableName specifies the table name for Level
func (Level) TableName() string {
	return "levels"
}

// Grade represents a year/course within a level (e.g., "1st Grade")
type Grade struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	LevelID   uint           `gorm:"not null;index" json:"level_id"`
	Name      string         `gorm:"type:varchar(120);not null" json:"name"`
	SortOrder int            `gorm:"default:0" json:"order"`

	// Relationships
	Level    Level          `gorm:"foreignKey:LevelID;constraint:OnDelete:CASCADE" json:"level,omitempty"`
	Subjects []GradeSubject `gorm:"foreignKey:GradeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Grade
func (Grade) TableName() string {
	return "grades"
}
