// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package tmsource

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

type fakeChain struct {
	head       int64
	validators map[int64][]*tmtypes.Validator
	signers    map[int64][]tmtypes.Address
	pageCalls  int
	commitErr  error
}

func testHeader(height int64) *tmtypes.Header {
	valHash := sha256.Sum256(binary.BigEndian.AppendUint64(nil, uint64(height)))
	return &tmtypes.Header{
		ChainID:        "mocha-4",
		Height:         height,
		Time:           time.Unix(1700000000+height, 0).UTC(),
		ValidatorsHash: valHash[:],
	}
}

func (c *fakeChain) Commit(_ context.Context, height *int64) (*ctypes.ResultCommit, error) {
	if c.commitErr != nil {
		return nil, c.commitErr
	}
	h := c.head
	if height != nil {
		h = *height
	}
	commit := &tmtypes.Commit{Height: h}
	for _, addr := range c.signers[h] {
		commit.Signatures = append(commit.Signatures, tmtypes.CommitSig{
			BlockIDFlag:      tmtypes.BlockIDFlagCommit,
			ValidatorAddress: addr,
		})
	}
	return &ctypes.ResultCommit{
		SignedHeader: tmtypes.SignedHeader{Header: testHeader(h), Commit: commit},
	}, nil
}

func (c *fakeChain) Validators(_ context.Context, height *int64, page, perPage *int) (*ctypes.ResultValidators, error) {
	c.pageCalls++
	all := c.validators[*height]
	start := (*page - 1) * *perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + *perPage
	if end > len(all) {
		end = len(all)
	}
	return &ctypes.ResultValidators{
		BlockHeight: *height,
		Validators:  all[start:end],
		Count:       end - start,
		Total:       len(all),
	}, nil
}

func address(i int) tmtypes.Address {
	addr := make([]byte, 20)
	binary.BigEndian.PutUint32(addr, uint32(i))
	return addr
}

func validators(from, to int, power int64) []*tmtypes.Validator {
	var vals []*tmtypes.Validator
	for i := from; i < to; i++ {
		vals = append(vals, &tmtypes.Validator{Address: address(i), VotingPower: power})
	}
	return vals
}

func TestHeaderHashMatchesTendermint(t *testing.T) {
	source := NewSource(&fakeChain{head: 900}, DefaultConfig.MaxValidatorSetSize, 0)
	hash, err := source.HeaderHashAt(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, common.BytesToHash(testHeader(50).Hash()), hash)

	height, latestHash, err := source.LatestSignedHeader(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(900), height)
	require.Equal(t, common.BytesToHash(testHeader(900).Hash()), latestHash)
}

func TestHeaderErrorsPropagate(t *testing.T) {
	errRPC := errors.New("connection refused")
	source := NewSource(&fakeChain{commitErr: errRPC}, 100, 0)
	_, err := source.HeaderHashAt(context.Background(), 5)
	require.ErrorIs(t, err, errRPC)
	_, err = source.LatestHeight(context.Background())
	require.ErrorIs(t, err, errRPC)
}

func TestValidatorSetPaginates(t *testing.T) {
	chain := &fakeChain{validators: map[int64][]*tmtypes.Validator{10: validators(0, 250, 1)}}
	source := NewSource(chain, 1000, 0)
	vals, err := source.ValidatorSet(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, vals, 250)
	require.Equal(t, 3, chain.pageCalls)
}

func TestCanSkipNeedsOneThirdOfTrustedPower(t *testing.T) {
	chain := &fakeChain{
		validators: map[int64][]*tmtypes.Validator{
			100: validators(0, 9, 10),
			500: validators(0, 9, 10),
		},
		signers: map[int64][]tmtypes.Address{},
	}
	source := NewSource(chain, 100, 0)

	// 3 of 9 equal validators is exactly one third, not enough.
	chain.signers[500] = []tmtypes.Address{address(0), address(1), address(2)}
	ok, err := source.CanSkip(context.Background(), 100, 500)
	require.NoError(t, err)
	require.False(t, ok)

	chain.signers[500] = append(chain.signers[500], address(3))
	ok, err = source.CanSkip(context.Background(), 100, 500)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanSkipIgnoresUntrustedSigners(t *testing.T) {
	chain := &fakeChain{
		validators: map[int64][]*tmtypes.Validator{
			100: validators(0, 3, 10),
			500: validators(10, 20, 10),
		},
		signers: map[int64][]tmtypes.Address{
			500: {address(10), address(11), address(12), address(13)},
		},
	}
	ok, err := NewSource(chain, 100, 0).CanSkip(context.Background(), 100, 500)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanSkipRejectsLargeValidatorSet(t *testing.T) {
	chain := &fakeChain{
		validators: map[int64][]*tmtypes.Validator{
			100: validators(0, 5, 10),
			500: validators(0, 5, 10),
		},
		signers: map[int64][]tmtypes.Address{500: {address(0), address(1), address(2), address(3), address(4)}},
	}
	ok, err := NewSource(chain, 4, 0).CanSkip(context.Background(), 100, 500)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = NewSource(chain, 5, 0).CanSkip(context.Background(), 100, 500)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanSkipNextBlock(t *testing.T) {
	ok, err := NewSource(&fakeChain{}, 1, 0).CanSkip(context.Background(), 100, 101)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig
	require.NoError(t, config.Validate())
	config.URL = ""
	require.Error(t, config.Validate())
	config = DefaultConfig
	config.MaxValidatorSetSize = 0
	require.Error(t, config.Validate())
	config = DefaultConfig
	config.CacheSize = -1
	require.Error(t, config.Validate())
}

func TestCachesByHeightOnly(t *testing.T) {
	chain := &fakeChain{
		head:       900,
		validators: map[int64][]*tmtypes.Validator{100: validators(0, 150, 1)},
	}
	source := NewSource(chain, 1000, 8)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		vals, err := source.ValidatorSet(ctx, 100)
		require.NoError(t, err)
		require.Len(t, vals, 150)
	}
	require.Equal(t, 2, chain.pageCalls)

	hash, err := source.HeaderHashAt(ctx, 100)
	require.NoError(t, err)
	chain.commitErr = errors.New("offline")
	cached, err := source.HeaderHashAt(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, hash, cached)

	_, err = source.LatestHeight(ctx)
	require.Error(t, err)
}
