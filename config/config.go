// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/holiman/uint256"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/chain4travel/botvm/genesis"
)

var (
	errInvalidDBType = errors.New("invalid database type")
	errInvalidAmount = errors.New("invalid amount")

	levelType   = reflect.TypeOf(logging.Level(0))
	shortIDType = reflect.TypeOf(ids.ShortID{})
	amountType  = reflect.TypeOf(&uint256.Int{})
)

type LogConfig struct {
	Directory    string        `mapstructure:"log-dir"`
	Level        logging.Level `mapstructure:"log-level"`
	DisplayLevel logging.Level `mapstructure:"log-display-level"`
	Format       string        `mapstructure:"log-format"`
	MaxSize      int           `mapstructure:"log-rotater-max-size"`
	MaxFiles     int           `mapstructure:"log-rotater-max-files"`
	MaxAge       int           `mapstructure:"log-rotater-max-age"`
	Compress     bool          `mapstructure:"log-rotater-compress-enabled"`
}

// GenesisConfig selects the genesis of a new chain.
type GenesisConfig struct {
	// File holds a JSON genesis. If empty, the default genesis is built from
	// the other fields.
	File         string        `mapstructure:"genesis-file"`
	Owner        ids.ShortID   `mapstructure:"genesis-owner"`
	DebatePeriod time.Duration `mapstructure:"genesis-debate-period"`
	MinVotes     *uint256.Int  `mapstructure:"genesis-min-votes"`
	MaxSupply    *uint256.Int  `mapstructure:"genesis-max-supply"`
}

type Config struct {
	DataDir     string `mapstructure:"data-dir"`
	DBType      string `mapstructure:"db-type"`
	PostgresDSN string `mapstructure:"postgres-dsn"`
	MetricsFile string `mapstructure:"metrics-file"`

	Genesis GenesisConfig `mapstructure:",squash"`
	Log     LogConfig     `mapstructure:",squash"`
}

// GetConfig decodes the settings of [v].
func GetConfig(v *viper.Viper) (Config, error) {
	if v.GetString(LogDisplayLevelKey) == "" {
		v.Set(LogDisplayLevelKey, v.GetString(LogLevelKey))
	}

	config := Config{}
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToLevelHook,
		stringToShortIDHook,
		stringToAmountHook,
	)))
	if err != nil {
		return Config{}, fmt.Errorf("couldn't decode config: %w", err)
	}

	switch config.DBType {
	case LevelDB, MemDB:
	default:
		return Config{}, fmt.Errorf("%w: %q", errInvalidDBType, config.DBType)
	}
	config.DataDir = os.ExpandEnv(config.DataDir)
	config.Log.Directory = os.ExpandEnv(config.Log.Directory)
	config.Genesis.File = os.ExpandEnv(config.Genesis.File)
	config.MetricsFile = os.ExpandEnv(config.MetricsFile)
	return config, nil
}

func stringToLevelHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != levelType {
		return data, nil
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	return logging.ToLevel(s)
}

func stringToShortIDHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != shortIDType {
		return data, nil
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return ids.ShortEmpty, nil
	}
	return genesis.ParseAddress(s)
}

func stringToAmountHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != amountType {
		return data, nil
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return nil, err
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", errInvalidAmount, s, err)
	}
	return amount, nil
}
