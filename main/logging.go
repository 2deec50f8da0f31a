// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/perms"
	"github.com/chain4travel/botvm/config"
	"github.com/chain4travel/botvm/vms/botvm"
)

// consoleWriter keeps stderr open when the logger stops.
type consoleWriter struct {
	io.Writer
}

func (consoleWriter) Close() error {
	return nil
}

// newLogger writes to stderr at the display level and, if a log directory is
// set, to a rotated file at the log level.
func newLogger(c config.LogConfig) (logging.Logger, error) {
	format, err := logging.ToFormat(c.Format, os.Stderr.Fd())
	if err != nil {
		return nil, fmt.Errorf("couldn't parse log format: %w", err)
	}

	cores := []logging.WrappedCore{
		logging.NewWrappedCore(c.DisplayLevel, consoleWriter{os.Stderr}, format.ConsoleEncoder()),
	}
	if c.Directory != "" {
		if err := os.MkdirAll(c.Directory, perms.ReadWriteExecute); err != nil {
			return nil, fmt.Errorf("couldn't create log directory: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(c.Directory, botvm.Name+".log"),
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxFiles,
			Compress:   c.Compress,
		}
		cores = append(cores, logging.NewWrappedCore(c.Level, writer, format.FileEncoder()))
	}
	return logging.NewLogger(format.WrapPrefix(botvm.Name), cores...), nil
}
