// Package dbtest opens migrated in-memory databases and seeds fixtures for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/db"
	"github.com/Skotchmaster/stayfinder/internal/hash"
	"github.com/Skotchmaster/stayfinder/internal/models"
)

const Password = "password123"

func New(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, email, role string) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(Password)
	require.NoError(t, err)

	u := &models.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: pw,
		Role:         role,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func SeedListing(t *testing.T, gdb *gorm.DB, ownerID uint, title string, pricePerNight int64) *models.Listing {
	t.Helper()

	l := &models.Listing{
		Title:         title,
		Description:   "A quiet place with a garden and a view of the hills.",
		PricePerNight: pricePerNight,
		NumGuests:     4,
		NumBedrooms:   2,
		NumBeds:       2,
		NumBathrooms:  1,
		Images:        []string{"https://img.example.com/1.jpg"},
		UserID:        ownerID,
		Status:        models.ListingAvailable,
	}
	require.NoError(t, gdb.Create(l).Error)
	return l
}
