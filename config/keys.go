// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey = "config-file"

	DataDirKey = "data-dir"
	DBTypeKey  = "db-type"

	GenesisFileKey         = "genesis-file"
	GenesisOwnerKey        = "genesis-owner"
	GenesisDebatePeriodKey = "genesis-debate-period"
	GenesisMinVotesKey     = "genesis-min-votes"
	GenesisMaxSupplyKey    = "genesis-max-supply"

	LogsDirKey           = "log-dir"
	LogLevelKey          = "log-level"
	LogDisplayLevelKey   = "log-display-level"
	LogFormatKey         = "log-format"
	LogRotateMaxSizeKey  = "log-rotater-max-size"
	LogRotateMaxFilesKey = "log-rotater-max-files"
	LogRotateMaxAgeKey   = "log-rotater-max-age"
	LogRotateCompressKey = "log-rotater-compress-enabled"

	PostgresDSNKey = "postgres-dsn"
	MetricsFileKey = "metrics-file"
)
