// Package migrations embeds the storefront schema for each supported driver.
package migrations

import (
	"embed"
	"errors"
	"io/fs"

	"github.com/dmitrymomot/storefront/pkg/query"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

var ErrUnsupportedDriver = errors.New("migrations: unsupported driver")

// For returns the migrations directory matching driver.
func For(driver string) (fs.FS, error) {
	dialect, err := query.ParseDialect(driver)
	if err != nil {
		return nil, errors.Join(ErrUnsupportedDriver, err)
	}
	switch dialect {
	case query.SQLite:
		return fs.Sub(files, "sqlite")
	case query.Postgres:
		return fs.Sub(files, "postgres")
	}
	return nil, ErrUnsupportedDriver
}
