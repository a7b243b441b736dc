// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"context"
	"crypto/rand"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Fail a test should an error occur
func RequireImpl(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(printables, err)
	}
}

func FailImpl(t *testing.T, printables ...interface{}) {
	t.Helper()
	t.Fatal(printables...)
}

func RandomHash() common.Hash {
	var hash common.Hash
	if _, err := rand.Read(hash[:]); err != nil {
		panic(err)
	}
	return hash
}

func RandomAddress() common.Address {
	var address common.Address
	if _, err := rand.Read(address[:]); err != nil {
		panic(err)
	}
	return address
}

// LogHandler records every message logged through the default geth logger.
type LogHandler struct {
	mutex   sync.Mutex
	t       *testing.T
	records []logRecord
}

type logRecord struct {
	level   slog.Level
	message string
}

func (h *LogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.records = append(h.records, logRecord{level: record.Level, message: record.Message})
	return nil
}

func (h *LogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func (h *LogHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *LogHandler) WasLogged(pattern string) bool {
	return h.count(pattern, func(slog.Level) bool { return true }) > 0
}

// WasLoggedAt reports whether a message matching pattern was logged at level.
func (h *LogHandler) WasLoggedAt(level slog.Level, pattern string) bool {
	return h.count(pattern, func(l slog.Level) bool { return l == level }) > 0
}

func (h *LogHandler) count(pattern string, match func(slog.Level) bool) int {
	re, err := regexp.Compile(pattern)
	RequireImpl(h.t, err)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, record := range h.records {
		if match(record.level) && re.MatchString(record.message) {
			n++
		}
	}
	return n
}

func (h *LogHandler) Messages() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	messages := make([]string, 0, len(h.records))
	for _, record := range h.records {
		messages = append(messages, record.message)
	}
	return messages
}

// InitTestLog installs a capturing handler as the default logger and restores
// the previous one when the test ends.
func InitTestLog(t *testing.T) *LogHandler {
	handler := &LogHandler{t: t}
	previous := log.Root()
	log.SetDefault(log.NewLogger(handler))
	t.Cleanup(func() { log.SetDefault(previous) })
	return handler
}
