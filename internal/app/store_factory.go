package app

import (
	"strings"

	"github.com/ahmedhadihasan/iqraaexam/internal/store"
	"github.com/ahmedhadihasan/iqraaexam/internal/store/postgres"
	"github.com/ahmedhadihasan/iqraaexam/internal/store/sqlite"
)

func NewStore(dsn string) (store.GradingStore, error) {
	if strings.HasPrefix(dsn, "postgres") {
		return postgres.NewPostgresStore(dsn)
	}
	return sqlite.NewSQLiteStore(&store.DBConfig{DSN: dsn, Type: store.DBTypeSQLite})
}
