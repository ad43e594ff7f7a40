package sqlxrepos_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/storage/database/sqlx"
	"github.com/trezcool/meritlist/tests"
)

func TestMeritRepository(t *testing.T) {
	testutil.RunMeritRepositoryTests(t, func(t *testing.T) merit.Repository {
		return sqlxrepos.NewMeritRepository(sqlx.NewDb(testutil.OpenTestDB(t), "postgres"))
	})
}

func TestSettingsRepository(t *testing.T) {
	db := sqlx.NewDb(testutil.OpenTestDB(t), "postgres")
	testutil.RunSettingsRepositoryTests(t, sqlxrepos.NewSettingsRepository(db))
}
