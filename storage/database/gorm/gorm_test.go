package gormrepos_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/storage/database/gorm"
	"github.com/trezcool/meritlist/tests"
)

func open(t *testing.T) *gorm.DB {
	db := testutil.OpenTestDB(t)
	gdb, err := gormrepos.Open(db, testutil.NewLogger(core.NewTestConfig()), false)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return gdb
}

func TestMeritRepository(t *testing.T) {
	testutil.RunMeritRepositoryTests(t, func(t *testing.T) merit.Repository {
		return gormrepos.NewMeritRepository(open(t))
	})
}

func TestSettingsRepository(t *testing.T) {
	testutil.RunSettingsRepositoryTests(t, gormrepos.NewSettingsRepository(open(t)))
}
