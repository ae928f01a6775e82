package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mission-control/internal/config"
	"github.com/sells-group/mission-control/internal/model"
)

// Source yields the raw club records of a directory, in order.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.RawClub, error)
}

// Open returns the Source configured by cfg.
func Open(cfg config.DirectoryConfig) (Source, error) {
	switch cfg.Driver {
	case config.DriverJSON:
		return &JSONSource{Path: cfg.Path}, nil
	case config.DriverYAML:
		return &YAMLSource{Path: cfg.Path}, nil
	case config.DriverXLSX:
		return &XLSXSource{Path: cfg.Path, SheetName: cfg.Sheet}, nil
	case config.DriverSQLite:
		return &SQLiteSource{Path: cfg.Path}, nil
	case config.DriverPostgres:
		return &PostgresSource{DSN: cfg.DSN}, nil
	default:
		return nil, eris.Errorf("directory: unsupported driver %q", cfg.Driver)
	}
}

// JSONSource reads a JSON array of club records from a file.
type JSONSource struct {
	Path string
}

func (s *JSONSource) Name() string { return "json:" + s.Path }

func (s *JSONSource) Load(_ context.Context) ([]model.RawClub, error) {
	data, ok, err := readOptional(s.Path)
	if err != nil || !ok {
		return nil, err
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, eris.Wrapf(err, "directory: parse json %s", s.Path)
	}
	return recordsToRaw(recs), nil
}

// YAMLSource reads a YAML sequence of club records from a file.
type YAMLSource struct {
	Path string
}

func (s *YAMLSource) Name() string { return "yaml:" + s.Path }

func (s *YAMLSource) Load(_ context.Context) ([]model.RawClub, error) {
	data, ok, err := readOptional(s.Path)
	if err != nil || !ok {
		return nil, err
	}
	var recs []record
	if err := yaml.Unmarshal(data, &recs); err != nil {
		return nil, eris.Wrapf(err, "directory: parse yaml %s", s.Path)
	}
	return recordsToRaw(recs), nil
}

// readOptional reads path. A missing file is not an error: the directory is
// simply empty.
func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("directory: source file not found, starting empty", zap.String("path", path))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "directory: read %s", path)
	}
	return data, true, nil
}
