// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var globalFileLogger = &bufferedFileLogger{}

// bufferedFileLogger hands records to a background writer so a slow disk
// never blocks the caller. Records are dropped while the buffer is full.
type bufferedFileLogger struct {
	mutex   sync.Mutex
	writer  *lumberjack.Logger
	records chan []byte
	done    chan struct{}
}

func (l *bufferedFileLogger) Write(p []byte) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.records == nil {
		return len(p), nil
	}
	select {
	case l.records <- append([]byte(nil), p...):
	default:
	}
	return len(p), nil
}

func (l *bufferedFileLogger) open(config *FileLoggingConfig, filename string) error {
	if err := l.close(); err != nil {
		return err
	}
	writer := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		LocalTime:  config.LocalTime,
		Compress:   config.Compress,
	}
	records := make(chan []byte, config.BufSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for record := range records {
			_, _ = writer.Write(record)
		}
	}()
	l.mutex.Lock()
	l.writer, l.records, l.done = writer, records, done
	l.mutex.Unlock()
	return nil
}

// close flushes buffered records and closes the file.
func (l *bufferedFileLogger) close() error {
	l.mutex.Lock()
	writer, records, done := l.writer, l.records, l.done
	l.writer, l.records, l.done = nil, nil, nil
	l.mutex.Unlock()
	if records == nil {
		return nil
	}
	close(records)
	<-done
	return writer.Close()
}

// CloseFileLogger flushes and closes the log file opened by InitLog.
func CloseFileLogger() error {
	return globalFileLogger.close()
}

// InitLog installs the default logger. A relative log file path is resolved
// against the working directory. Plaintext output is colored when stderr is a
// terminal and no log file is written.
func InitLog(logType string, logLevel string, fileLoggingConfig *FileLoggingConfig) error {
	if err := globalFileLogger.close(); err != nil {
		return fmt.Errorf("failed to close file writer: %w", err)
	}
	output := io.Writer(os.Stderr)
	if fileLoggingConfig.Enable {
		filename, err := filepath.Abs(fileLoggingConfig.File)
		if err != nil {
			return fmt.Errorf("resolving log file path: %w", err)
		}
		if err := globalFileLogger.open(fileLoggingConfig, filename); err != nil {
			return err
		}
		output = io.MultiWriter(os.Stderr, globalFileLogger)
	}
	// no escape codes in the log file
	useColor := !fileLoggingConfig.Enable && term.IsTerminal(int(os.Stderr.Fd()))
	handler, err := HandlerFromLogType(logType, output, useColor)
	if err != nil {
		return fmt.Errorf("error parsing log type when creating handler: %w", err)
	}
	slogLevel, err := ToSlogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(slogLevel)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}
