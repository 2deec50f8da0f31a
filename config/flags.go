// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chain4travel/botvm/genesis"
	"github.com/chain4travel/botvm/vms/botvm/dao"
)

const (
	EnvPrefix = "botvm"

	LevelDB = "leveldb"
	MemDB   = "memdb"
)

var (
	defaultDataDir = filepath.Join("$HOME", ".botvm")
	defaultLogDir  = filepath.Join(defaultDataDir, "logs")
	defaultDBDir   = filepath.Join(defaultDataDir, "db")
)

// AddFlags adds the flags shared by every command to [fs].
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies a config file")

	// Database
	fs.String(DataDirKey, defaultDBDir, "Path to the chain database")
	fs.String(DBTypeKey, LevelDB, fmt.Sprintf("Database type to use. Should be one of {%s, %s}", LevelDB, MemDB))

	// Genesis
	fs.String(GenesisFileKey, "", "Specifies a genesis config file. Ignored once the database holds a chain. The default genesis is used if empty")
	fs.String(GenesisOwnerKey, "", "Owner of the contracts of the default genesis")
	fs.Duration(GenesisDebatePeriodKey, dao.DefaultDebatePeriod, "Debate period of the dao of the default genesis")
	fs.String(GenesisMinVotesKey, dao.DefaultMinVotes.Dec(), "Min votes, in base units, of the dao of the default genesis")
	fs.String(GenesisMaxSupplyKey, genesis.DefaultMaxSupply.Dec(), "Max supply, in base units, of the token of the default genesis")

	// Logging
	fs.String(LogsDirKey, defaultLogDir, "Logging directory")
	fs.String(LogLevelKey, "info", "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "info", "The log display level. If left blank, will inherit the value of log-level")
	fs.String(LogFormatKey, "auto", "The structure of log format. Defaults to 'auto' which formats terminal-like logs, when the output is a terminal. Otherwise, should be one of {auto, plain, colors, json}")
	fs.Uint(LogRotateMaxSizeKey, 8, "The maximum file size in megabytes of the log file before it gets rotated")
	fs.Uint(LogRotateMaxFilesKey, 7, "The maximum number of old log files to retain. 0 means retain all old log files")
	fs.Uint(LogRotateMaxAgeKey, 0, "The maximum number of days to retain old log files based on the timestamp encoded in their filename. 0 means retain all old log files")
	fs.Bool(LogRotateCompressKey, false, "Enables the compression of rotated log files through gzip")

	// Outputs
	fs.String(PostgresDSNKey, "", "Postgres data source name of the event archive. Events are not archived if empty")
	fs.String(MetricsFileKey, "", "File the metrics are written to on exit, in the prometheus text format")
}

// BuildViper binds [fs] and the BOTVM_ prefixed environment to a viper
// instance, and reads the config file if one is set.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) {
		configFile := os.ExpandEnv(v.GetString(ConfigFileKey))
		if configFile != "" {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("couldn't read config file %s: %w", configFile, err)
			}
		}
	}
	return v, nil
}
