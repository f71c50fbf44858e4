// Package store provides key-value stores for persisted settings.
package store

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Store types accepted by Open.
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// ErrUnknownType is returned by Open for an unsupported store type.
var ErrUnknownType = errors.New("unknown store type")

// Store is a string key-value store that can be closed.
type Store interface {
	Has(key string) (bool, error)
	GetString(key string) (string, error)
	SetString(key, value string) error
	Close() error
}

// FileConfig holds settings for the YAML file store.
type FileConfig struct {
	Path string `yaml:"path" mapstructure:"path" default:"soundbox-settings.yaml" validate:"required"`
}

// SQLiteConfig holds settings for the SQLite store.
type SQLiteConfig struct {
	Path  string `yaml:"path" mapstructure:"path" default:"soundbox.db" validate:"required"`
	Table string `yaml:"table" mapstructure:"table" default:"settings" validate:"required,alphanum"`
}

// Open creates the store of the given type from its free-form settings.
func Open(storeType string, settings map[string]any) (Store, error) {
	switch storeType {
	case TypeMemory, "":
		return NewMemory(), nil
	case TypeFile:
		var cfg FileConfig
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, err
		}
		zlog.Debug().Msgf("store: opening file store: %+v", cfg)
		return OpenFile(cfg.Path)
	case TypeSQLite:
		var cfg SQLiteConfig
		if err := decodeSettings(settings, &cfg); err != nil {
			return nil, err
		}
		zlog.Debug().Msgf("store: opening sqlite store: %+v", cfg)
		return OpenSQLite(cfg.Path, cfg.Table)
	default:
		return nil, errors.Wrapf(ErrUnknownType, "%q", storeType)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
