// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package ephemeralerror

import "sync/atomic"

type logFunc func(msg string, ctx ...interface{})

// CountEphemeralErrorLogger logs the first errorCountTrigger errors since the
// last Reset at warn level and every later one at error level.
type CountEphemeralErrorLogger struct {
	warn              logFunc
	err               logFunc
	errorCountTrigger int64
	count             atomic.Int64
}

func NewCountEphemeralErrorLogger(warn, err func(msg string, ctx ...interface{}), errorCountTrigger int64) *CountEphemeralErrorLogger {
	return &CountEphemeralErrorLogger{
		warn:              warn,
		err:               err,
		errorCountTrigger: errorCountTrigger,
	}
}

func (e *CountEphemeralErrorLogger) Error(msg string, ctx ...interface{}) {
	if e.count.Add(1) > e.errorCountTrigger {
		e.err(msg, ctx...)
	} else {
		e.warn(msg, ctx...)
	}
}

func (e *CountEphemeralErrorLogger) Reset() {
	e.count.Store(0)
}
