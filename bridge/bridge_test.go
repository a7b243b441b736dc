// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package bridge

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightbridge/tendermintx-operator/util/testhelpers"
)

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}

type recordingEncoder struct {
	steps [][1]uint64
	skips [][2]uint64
}

func (e *recordingEncoder) EncodeStep(trusted uint64) ([]byte, error) {
	e.steps = append(e.steps, [1]uint64{trusted})
	return binary.BigEndian.AppendUint64([]byte{0x01}, trusted), nil
}

func (e *recordingEncoder) EncodeSkip(trusted, target uint64) ([]byte, error) {
	e.skips = append(e.skips, [2]uint64{trusted, target})
	out := binary.BigEndian.AppendUint64([]byte{0x02}, trusted)
	return binary.BigEndian.AppendUint64(out, target), nil
}

type staticSource struct {
	hashes map[uint64]HeaderHash
	head   uint64
	err    error
}

func (s *staticSource) LatestHeight(context.Context) (uint64, error) {
	return s.head, s.err
}

func (s *staticSource) HeaderHashAt(_ context.Context, height uint64) (HeaderHash, error) {
	if s.err != nil {
		return HeaderHash{}, s.err
	}
	return s.hashes[height], nil
}

type staticContract struct {
	synced  uint64
	maxSkip uint64
	hashes  map[uint64]HeaderHash
	err     error
}

func (c *staticContract) SyncedHeight(context.Context) (uint64, error) {
	return c.synced, c.err
}

func (c *staticContract) HeaderHashAt(_ context.Context, height uint64) (HeaderHash, error) {
	if c.err != nil {
		return HeaderHash{}, c.err
	}
	return c.hashes[height], nil
}

func (c *staticContract) MaxSkip(context.Context) (uint64, error) {
	return c.maxSkip, c.err
}

var errRPC = errors.New("rpc unavailable")

func repeatedHash(b byte) HeaderHash {
	var h HeaderHash
	for i := range h {
		h[i] = b
	}
	return h
}

var (
	testStepID = common.HexToHash("0x5555")
	testSkipID = common.HexToHash("0x6666")
)
