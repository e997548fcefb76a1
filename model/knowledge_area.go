package model

import (
	"time"

	"gorm.io/gorm"
)

// KnowledgeArea represents a thematic grouping of subjects (e.g., Sciences, Humanities)
type KnowledgeArea struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(120);not null;index" json:"name"` // Uniqueness among non-deleted rows is enforced in the service
	Color     string         `gorm:"type:varchar(20)" json:"color"` // Hex color used by the frontend
	SortOrder int            `gorm:"default:0" json:"order"`

	// Relationships
	Subjects []Subject `gorm:"foreignKey:AreaID" json:"subjects,omitempty"`
}

// TableName specifies the table name for KnowledgeArea
func (KnowledgeArea) TableName() string {
	return "knowledge_areas"
}
