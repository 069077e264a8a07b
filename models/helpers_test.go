package models

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the catalog schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a different database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Category{}, &Product{}))
	return db
}

func newTestProduct(name string, price float64, stock int) *Product {
	return &Product{
		Name:          name,
		Price:         decimal.NewFromFloat(price),
		Description:   name + " description",
		InStock:       stock > 0,
		StockQuantity: stock,
	}
}

func mustCreateCategory(t *testing.T, repo *CategoriesRepository, name string) *Category {
	t.Helper()
	c := &Category{Name: name}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func mustCreateProduct(t *testing.T, repo *ProductsRepository, p *Product) *Product {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
