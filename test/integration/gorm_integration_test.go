package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/specification"
	"ai-intent-be/internal/repository/unitofwork"
	"ai-intent-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.PageRepository())
	assert.NotNil(t, uow.IntentRepository())
	assert.NotNil(t, uow.TaskRepository())
	assert.NotNil(t, uow.NudgeRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Page Repository", func(t *testing.T) {
		count, err := uow.PageRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Page count: %d", count)
	})

	t.Run("Check Task Repository", func(t *testing.T) {
		count, err := uow.TaskRepository().Count(context.Background(),
			specification.TaskByStatus{Status: entity.TaskStatusQueued},
		)
		assert.NoError(t, err)
		t.Logf("Queued task count: %d", count)
	})

	t.Run("Transactional Intent And Page", func(t *testing.T) {
		ctx := context.Background()
		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		now := time.Now()
		intent := &entity.Intent{
			Id:          uuid.New(),
			Label:       "Integration test intent",
			Status:      entity.IntentStatusEmerging,
			FirstSeen:   now,
			LastUpdated: now,
			CreatedAt:   now,
		}
		err = uow.IntentRepository().Create(ctx, intent)
		assert.NoError(t, err)

		page := &entity.Page{
			Id:    uuid.New(),
			Url:   "https://example.com/integration-" + uuid.New().String(),
			Title: "Integration Test Page",
			Interaction: entity.Interaction{
				DwellTimeMs: 12000,
				ScrollDepth: 0.8,
			},
			Embedding: make([]float32, 768),
			Primary: &entity.IntentAssignment{
				IntentId:     intent.Id,
				Confidence:   0.9,
				AssignedAt:   now,
				AutoAssigned: true,
			},
			VisitedAt: now,
			CreatedAt: now,
		}
		err = uow.PageRepository().Create(ctx, page)
		assert.NoError(t, err)

		// Read back inside the transaction; the vector column round-trips.
		fetched, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: page.Id})
		assert.NoError(t, err)
		if assert.NotNil(t, fetched) {
			assert.Equal(t, page.Url, fetched.Url)
			assert.Len(t, fetched.Embedding, 768)
			if assert.NotNil(t, fetched.Primary) {
				assert.Equal(t, intent.Id, fetched.Primary.IntentId)
			}
		}

		// Rolled back by the deferred Rollback; nothing persists.
	})
}
