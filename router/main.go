package router

import (
	"log"
	"os"

	"github.com/escolarhq/academico-api/database"
	"github.com/escolarhq/academico-api/handlers"
	area_handlers "github.com/escolarhq/academico-api/handlers/area"
	curriculum_handlers "github.com/escolarhq/academico-api/handlers/curriculum"
	subject_handlers "github.com/escolarhq/academico-api/handlers/subject"
	"github.com/escolarhq/academico-api/services"
	"github.com/escolarhq/academico-api/utils"
	"github.com/escolarhq/academico-api/utils/cache"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	db := store.GetDB()

	// Redis cache for the curriculum overview; the API degrades gracefully
	// without it.
	var redisCache *cache.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		var err error
		redisCache, err = cache.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Curriculum overview cache disabled.", err)
			redisCache = nil
		}
	}

	// Audit sink shared by all mutation handlers
	auditSink := services.NewLogAuditSink(utils.NewLogger())

	// Services
	catalogService := services.NewSubjectCatalogService(db)
	areaService := services.NewAreaService(db)
	prerequisiteService := services.NewPrerequisiteService(db)
	curriculumService := services.NewCurriculumService(db, redisCache)

	// Handlers
	subjectHandler := subject_handlers.NewSubjectHandler(catalogService, auditSink)
	prerequisiteHandler := subject_handlers.NewPrerequisiteHandler(prerequisiteService, auditSink)
	areaHandler := area_handlers.NewAreaHandler(areaService, auditSink)
	curriculumHandler := curriculum_handlers.NewCurriculumHandler(curriculumService, auditSink)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	v1 := app.Group("/api/v1")

	// Subject catalog
	subjects := v1.Group("/subjects")
	subjects.Get("/", subjectHandler.ListSubjects)
	subjects.Post("/", subjectHandler.CreateSubject)
	subjects.Get("/:id", subjectHandler.GetSubject)
	subjects.Put("/:id", subjectHandler.UpdateSubject)
	subjects.Delete("/:id", subjectHandler.DeleteSubject)

	// Prerequisite graph
	subjects.Get("/:id/prerequisites", prerequisiteHandler.ListPrerequisites)
	subjects.Post("/:id/prerequisites", prerequisiteHandler.AddPrerequisite)
	subjects.Delete("/:id/prerequisites/:prerequisite_id", prerequisiteHandler.RemovePrerequisite)

	// Knowledge areas
	areas := v1.Group("/areas")
	areas.Get("/", areaHandler.ListAreas)
	areas.Post("/", areaHandler.CreateArea)
	areas.Put("/:id", areaHandler.UpdateArea)
	areas.Delete("/:id", areaHandler.DeleteArea)

	// Grade-subject curriculum
	grades := v1.Group("/grades")
	grades.Get("/:grade_id/subjects", curriculumHandler.ListByGrade)
	grades.Post("/:grade_id/subjects", curriculumHandler.AssignSubject)
	grades.Put("/:grade_id/subjects/order", curriculumHandler.Reorder)

	curriculum := v1.Group("/curriculum")
	curriculum.Get("/", curriculumHandler.ListGrouped)
	curriculum.Put("/assignments/:id", curriculumHandler.UpdateAssignment)
	curriculum.Delete("/assignments/:id", curriculumHandler.RemoveAssignment)
}
