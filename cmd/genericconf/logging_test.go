// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestToSlogLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"trace": log.LevelTrace,
		"DEBUG": log.LevelDebug,
		"info":  log.LevelInfo,
		"warn":  log.LevelWarn,
		"error": log.LevelError,
		"crit":  log.LevelCrit,
		"3":     log.LevelInfo,
		"1":     log.LevelError,
	} {
		level, err := ToSlogLevel(input)
		require.NoError(t, err, input)
		require.Equal(t, want, level, input)
	}
	for _, input := range []string{"", "verbose", "9", "-1"} {
		_, err := ToSlogLevel(input)
		require.Error(t, err, input)
	}
}

func TestHandlerFromLogType(t *testing.T) {
	for _, logType := range []string{"plaintext", "json"} {
		for _, useColor := range []bool{false, true} {
			_, err := HandlerFromLogType(logType, os.Stderr, useColor)
			require.NoError(t, err)
		}
	}
	_, err := HandlerFromLogType("xml", os.Stderr, false)
	require.Error(t, err)
}

func TestInitLogWritesFile(t *testing.T) {
	previous := log.Root()
	defer log.SetDefault(previous)

	config := DefaultFileLoggingConfig
	config.Enable = true
	config.Compress = false
	config.File = filepath.Join(t.TempDir(), "operator.log")
	require.NoError(t, InitLog("json", "info", &config))

	log.Info("written to file", "height", 42)
	log.Debug("filtered out")
	require.NoError(t, CloseFileLogger())

	data, err := os.ReadFile(config.File)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "written to file"))
	require.False(t, strings.Contains(string(data), "filtered out"))
}

func TestInitLogRejectsBadInput(t *testing.T) {
	previous := log.Root()
	defer log.SetDefault(previous)

	require.Error(t, InitLog("xml", "info", &DefaultFileLoggingConfig))
	require.Error(t, InitLog("plaintext", "loud", &DefaultFileLoggingConfig))
}
