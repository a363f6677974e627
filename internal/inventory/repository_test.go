package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/estoque-mci/estoque-api/pkg/db/models"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:inventory_repo_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func TestFindByIDMatchesLegacySpelling(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{ID: "4410.0", Name: "Parafuso M8"}))

	found, err := repo.FindByID(ctx, "4410")
	require.NoError(t, err)
	assert.Equal(t, "4410.0", found.ID)

	found, err = repo.FindByID(ctx, "4410.0")
	require.NoError(t, err)
	assert.Equal(t, "Parafuso M8", found.Name)
}

func TestFindByIDRejectsBlank(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))

	_, err := repo.FindByID(context.Background(), "   ")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpsertBatchOverwritesStockColumns(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	obs := "chegada prevista"
	require.NoError(t, repo.Create(ctx, &models.Product{
		ID: "100", Name: "Old Name", StockCE: 5, Total: 5, Observations: &obs,
	}))

	require.NoError(t, repo.UpsertBatch(ctx, []models.Product{
		{ID: "100", Name: "New Name", StockCE: 2, StockSP: 3, Total: 5},
		{ID: "200", Name: "Fresh", StockSC: 7, Total: 7},
	}))

	updated, err := repo.FindByID(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 2, updated.StockCE)
	assert.Equal(t, 3, updated.StockSP)
	assert.Nil(t, updated.Observations)

	fresh, err := repo.FindByID(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, 7, fresh.StockSC)
}

func TestSearchMatchesIDNameAndBrand(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{ID: "300", Name: "Furadeira", Brand: "Bosch"}))
	require.NoError(t, repo.Create(ctx, &models.Product{ID: "301", Name: "Serra", Brand: "Makita"}))

	byBrand, err := repo.Search(ctx, "bosch")
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "300", byBrand[0].ID)

	byName, err := repo.Search(ctx, "SERRA")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Makita", byName[0].Brand)
}

func TestDeleteRemovesBothSpellings(t *testing.T) {
	repo := NewRepository(setupRepoTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{ID: "500.0", Name: "Cabo"}))
	require.NoError(t, repo.Delete(ctx, "500"))

	_, err := repo.FindByID(ctx, "500")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
