package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atag/internal/domain"
	"github.com/pkordes/atag/internal/service"
)

// ---- helpers ---------------------------------------------------------------

func tagFixtureExport(name string) domain.Tag {
	return domain.Tag{
		ID:        uuid.New(),
		Name:      name,
		OwnerType: domain.OwnerTeam,
		OwnerID:   "2",
	}
}

func entityFixtureExport(tagID uuid.UUID, key string, note *domain.TagNote) domain.TaggedEntity {
	return domain.TaggedEntity{
		ID:         uuid.New(),
		TagID:      tagID,
		EntityType: "Order",
		EntityKey:  key,
		Note:       note,
		CreatedBy:  1,
		CreatedAt:  time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
}

func exportRepo(tag domain.Tag, entities []domain.TaggedEntity) *mockTagRepo {
	return &mockTagRepo{
		loadTag: func(_ context.Context, id uuid.UUID) (domain.Tag, bool, error) {
			return tag, id == tag.ID, nil
		},
		loadTaggedEntities: func(_ context.Context, _ uuid.UUID) ([]domain.TaggedEntity, error) {
			return entities, nil
		},
	}
}

// ---- Export ----------------------------------------------------------------

func TestExportService_Export_OneRowPerEntity(t *testing.T) {
	tag := tagFixtureExport("Procurement")
	modified := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	entities := []domain.TaggedEntity{
		entityFixtureExport(tag.ID, "101", &domain.TagNote{Note: "rush", ModifiedAt: modified}),
		entityFixtureExport(tag.ID, "100", nil),
	}
	svc := service.NewExportService(exportRepo(tag, entities))

	rows, err := svc.Export(context.Background(), tag.ID)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Procurement", rows[0].TagName)
	assert.Equal(t, tag.ID.String(), rows[1].TagID)
	assert.Equal(t, "101", rows[0].EntityKey)
	assert.Equal(t, "rush", rows[0].Note)
	require.NotNil(t, rows[0].NoteModifiedAt)
	assert.Equal(t, modified, *rows[0].NoteModifiedAt)
	assert.Empty(t, rows[1].Note)
	assert.Nil(t, rows[1].NoteModifiedAt)
}

func TestExportService_Export_NoEntities(t *testing.T) {
	tag := tagFixtureExport("Empty")
	svc := service.NewExportService(exportRepo(tag, []domain.TaggedEntity{}))

	rows, err := svc.Export(context.Background(), tag.ID)

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExportService_Export_TagAbsent(t *testing.T) {
	svc := service.NewExportService(exportRepo(tagFixtureExport("x"), nil))

	_, err := svc.Export(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportService_Export_RepoError(t *testing.T) {
	tag := tagFixtureExport("x")
	repoErr := errors.New("boom")
	m := exportRepo(tag, nil)
	m.loadTaggedEntities = func(context.Context, uuid.UUID) ([]domain.TaggedEntity, error) { return nil, repoErr }
	svc := service.NewExportService(m)

	_, err := svc.Export(context.Background(), tag.ID)

	assert.ErrorIs(t, err, repoErr)
}
