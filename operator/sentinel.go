// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package operator

import "strings"

const (
	requestIDStart = "request____start"
	requestIDEnd   = "request____end"
)

// FrameRequestID wraps a request id in the markers scanned for by tooling
// that drives manual submissions.
func FrameRequestID(id string) string {
	return requestIDStart + id + requestIDEnd
}

// ExtractRequestID returns the first framed request id in s. It is the reading
// side of FrameRequestID for tools tailing the operator log.
func ExtractRequestID(s string) (string, bool) {
	start := strings.Index(s, requestIDStart)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(requestIDStart):]
	end := strings.Index(rest, requestIDEnd)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
