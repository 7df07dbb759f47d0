package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tillpoint/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Product{}))
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, priceCents int, active bool) uuid.UUID {
	t.Helper()
	p := models.Product{Name: name, SKU: "SKU-" + uuid.NewString()[:8], UnitPriceCents: priceCents, IsActive: active}
	require.NoError(t, gdb.Create(&p).Error)
	return p.ID
}

func TestFindByIDReturnsProduct(t *testing.T) {
	t.Parallel()
	gdb := newCatalogDB(t)
	repo := NewRepository(gdb)
	id := seedProduct(t, gdb, "Widget", 1000, true)

	product, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Widget", product.Name)
	assert.Equal(t, 1000, product.UnitPriceCents)
}

func TestFindByIDUnknownProduct(t *testing.T) {
	t.Parallel()
	gdb := newCatalogDB(t)
	repo := NewRepository(gdb)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound))
}

func TestFindByIDsFailsOnAnyMissing(t *testing.T) {
	t.Parallel()
	gdb := newCatalogDB(t)
	repo := NewRepository(gdb)
	known := seedProduct(t, gdb, "Widget", 1000, true)
	missing := uuid.New()

	_, err := repo.FindByIDs(context.Background(), []uuid.UUID{known, missing})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeProductNotFound))
}

func TestFindByIDsLoadsSnapshot(t *testing.T) {
	t.Parallel()
	gdb := newCatalogDB(t)
	repo := NewRepository(gdb)
	a := seedProduct(t, gdb, "Widget", 1000, true)
	b := seedProduct(t, gdb, "Gadget", 3000, false)

	byID, err := repo.FindByIDs(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "Widget", byID[a].Name)
	assert.False(t, byID[b].IsActive)
}

func TestFindByIDsEmptyInput(t *testing.T) {
	t.Parallel()
	repo := NewRepository(newCatalogDB(t))

	byID, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestWithTxRebinds(t *testing.T) {
	t.Parallel()
	gdb := newCatalogDB(t)
	repo := NewRepository(gdb)

	assert.Equal(t, repo, repo.WithTx(nil))
	assert.NotNil(t, repo.WithTx(gdb.Session(&gorm.Session{})))
}
