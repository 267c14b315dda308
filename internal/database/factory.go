package database

import (
	"fmt"

	"github.com/maksimowich/fake-data-generator/internal/database/csvfile"
	"github.com/maksimowich/fake-data-generator/internal/database/mongodb"
	"github.com/maksimowich/fake-data-generator/internal/database/mysql"
	"github.com/maksimowich/fake-data-generator/internal/database/postgres"
	"github.com/maksimowich/fake-data-generator/internal/database/sqlite"
	"github.com/maksimowich/fake-data-generator/internal/database/xmlfile"
	"go.uber.org/zap"
)

type Options struct {
	CSVDelimiter rune
	CSVEncoding  string
	Logger       *zap.Logger
}

func NewAdapter(provider string, opts Options) (Adapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	case "mongodb":
		return mongodb.New(opts.Logger), nil
	case "csv":
		a, err := csvfile.New(opts.CSVDelimiter, opts.CSVEncoding)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "xml":
		return xmlfile.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}
