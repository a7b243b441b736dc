// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package bridge

import (
	"context"
	"errors"
	"fmt"
)

// ConsistencyError means the light client stores a header hash the source
// chain never produced, usually a bad genesis entry. It must not be retried.
type ConsistencyError struct {
	Height   uint64
	Chain    HeaderHash
	Contract HeaderHash
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v at height %d: tendermint rpc %v, contract %v", ErrHeaderMismatch, e.Height, e.Chain, e.Contract)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrHeaderMismatch
}

func IsFatal(err error) bool {
	return errors.Is(err, ErrHeaderMismatch)
}

// CheckConsistency compares the source chain header hash at height with the
// one recorded by the contract. Read failures are returned as plain errors;
// a mismatch is returned as *ConsistencyError.
func CheckConsistency(ctx context.Context, height uint64, source HeaderSource, contract BridgeContract) error {
	chainHash, err := source.HeaderHashAt(ctx, height)
	if err != nil {
		return fmt.Errorf("fetching header %d from source chain: %w", height, err)
	}
	contractHash, err := contract.HeaderHashAt(ctx, height)
	if err != nil {
		return fmt.Errorf("fetching header hash %d from contract: %w", height, err)
	}
	if chainHash != contractHash {
		return &ConsistencyError{
			Height:   height,
			Chain:    chainHash,
			Contract: contractHash,
		}
	}
	return nil
}
