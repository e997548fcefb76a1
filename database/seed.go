package database

import (
	"fmt"
	"log"

	"github.com/escolarhq/academico-api/model"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedLevels(); err != nil {
		return fmt.Errorf("failed to seed levels: %w", err)
	}

	if err := s.SeedGrades(); err != nil {
		return fmt.Errorf("failed to seed grades: %w", err)
	}

	if err := s.SeedKnowledgeAreas(); err != nil {
		return fmt.Errorf("failed to seed knowledge areas: %w", err)
	}

	if err := s.SeedSubjects(); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedLevels creates the default academic levels
func (s *Seeder) SeedLevels() error {
	var count int64
	if err := s.db.Model(&model.Level{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Levels already exist, skipping...")
		return nil
	}

	levels := []model.Level{
		{Name: "Primary", SortOrder: 1},
		{Name: "Secondary", SortOrder: 2},
	}

	if err := s.db.Create(&levels).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d levels", len(levels))
	return nil
}

// SeedGrades creates six grades per seeded level
func (s *Seeder) SeedGrades() error {
	var count int64
	if err := s.db.Model(&model.Grade{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Grades already exist, skipping...")
		return nil
	}

	var levels []model.Level
	if err := s.db.Order("sort_order ASC").Find(&levels).Error; err != nil {
		return err
	}

	created := 0
	for _, level := range levels {
		for i := 1; i <= 6; i++ {
			grade := model.Grade{
				LevelID:   level.ID,
				Name:      fmt.Sprintf("%s %d", level.Name, i),
				SortOrder: i,
			}
			if err := s.db.Create(&grade).Error; err != nil {
				return err
			}
			created++
		}
	}

	log.Printf("✅ Seeded %d grades", created)
	return nil
}

// SeedKnowledgeAreas creates the default thematic areas
func (s *Seeder) SeedKnowledgeAreas() error {
	var count int64
	if err := s.db.Model(&model.KnowledgeArea{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Knowledge areas already exist, skipping...")
		return nil
	}

	areas := []model.KnowledgeArea{
		{Name: "Mathematics", Color: "#1E88E5", SortOrder: 1},
		{Name: "Language & Literature", Color: "#8E24AA", SortOrder: 2},
		{Name: "Natural Sciences", Color: "#43A047", SortOrder: 3},
		{Name: "Social Sciences", Color: "#F4511E", SortOrder: 4},
		{Name: "Arts & Physical Education", Color: "#FDD835", SortOrder: 5},
	}

	if err := s.db.Create(&areas).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d knowledge areas", len(areas))
	return nil
}

// SeedSubjects creates a small demo subject catalog
func (s *Seeder) SeedSubjects() error {
	var count int64
	if err := s.db.Model(&model.Subject{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Subjects already exist, skipping...")
		return nil
	}

	var areas []model.KnowledgeArea
	if err := s.db.Order("sort_order ASC").Find(&areas).Error; err != nil {
		return err
	}
	areaByName := make(map[string]uint, len(areas))
	for _, a := range areas {
		areaByName[a.Name] = a.ID
	}

	areaID := func(name string) *uint {
		if id, ok := areaByName[name]; ok {
			return &id
		}
		return nil
	}

	subjects := []model.Subject{
		{Code: "MAT-101", Name: "Arithmetic", AreaID: areaID("Mathematics"), WeeklyHours: 5, Credits: 4, IsMandatory: true, Active: true},
		{Code: "MAT-201", Name: "Algebra", AreaID: areaID("Mathematics"), WeeklyHours: 5, Credits: 4, IsMandatory: true, Active: true},
		{Code: "LEN-101", Name: "Reading & Writing", AreaID: areaID("Language & Literature"), WeeklyHours: 6, Credits: 4, IsMandatory: true, Active: true},
		{Code: "CIE-101", Name: "Natural Sciences I", AreaID: areaID("Natural Sciences"), WeeklyHours: 4, Credits: 3, IsMandatory: true, HasLab: true, Active: true},
		{Code: "SOC-101", Name: "Social Studies I", AreaID: areaID("Social Sciences"), WeeklyHours: 3, Credits: 3, IsMandatory: true, Active: true},
		{Code: "ART-101", Name: "Visual Arts", AreaID: areaID("Arts & Physical Education"), WeeklyHours: 2, Credits: 2, IsMandatory: false, Active: true},
	}

	if err := s.db.Create(&subjects).Error; err != nil {
		return err
	}

	// Arithmetic is a prerequisite of Algebra in the demo catalog
	var arithmetic, algebra model.Subject
	if err := s.db.Where("code = ?", "MAT-101").First(&arithmetic).Error; err == nil {
		if err := s.db.Where("code = ?", "MAT-201").First(&algebra).Error; err == nil {
			edge := model.SubjectPrerequisite{SubjectID: algebra.ID, PrerequisiteID: arithmetic.ID}
			if err := s.db.Create(&edge).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("✅ Seeded %d subjects", len(subjects))
	return nil
}
