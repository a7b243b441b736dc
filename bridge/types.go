// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package bridge holds the decision core of the operator: which block to
// prove next, whether the light client still agrees with the source chain, and
// how a proof request is laid out for the proving network.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// HeaderHash is the 32 byte hash of a Tendermint block header.
type HeaderHash = common.Hash

var (
	ErrInvalidRange   = errors.New("trusted height must be below target height")
	ErrHeaderMismatch = errors.New("light client header does not match source chain")
)

type RequestKind uint8

const (
	StepRequest RequestKind = iota
	SkipRequest
)

func (k RequestKind) String() string {
	switch k {
	case StepRequest:
		return "step"
	case SkipRequest:
		return "skip"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// ProofRequest is either a step (target = trusted+1) or a skip (target >
// trusted+1). TargetHeight is always set, even for a step.
type ProofRequest struct {
	Kind              RequestKind
	TrustedHeight     uint64
	TrustedHeaderHash HeaderHash
	TargetHeight      uint64
}

func (r ProofRequest) String() string {
	return fmt.Sprintf("%v(trusted=%d, target=%d, hash=%v)", r.Kind, r.TrustedHeight, r.TargetHeight, r.TrustedHeaderHash)
}

// HeaderSource is the view of the Tendermint chain the operator needs.
type HeaderSource interface {
	LatestHeight(ctx context.Context) (uint64, error)
	HeaderHashAt(ctx context.Context, height uint64) (HeaderHash, error)
}

// BridgeContract is the read-only view of the destination light client.
type BridgeContract interface {
	SyncedHeight(ctx context.Context) (uint64, error)
	HeaderHashAt(ctx context.Context, height uint64) (HeaderHash, error)
	MaxSkip(ctx context.Context) (uint64, error)
}

// CallEncoder produces the calldata the destination contract runs once the
// proof for a request has been generated.
type CallEncoder interface {
	EncodeStep(trustedHeight uint64) ([]byte, error)
	EncodeSkip(trustedHeight, targetHeight uint64) ([]byte, error)
}

// SkipVerifier reports whether a proof from trusted to target can be produced.
type SkipVerifier interface {
	CanSkip(ctx context.Context, trustedHeight, targetHeight uint64) (bool, error)
}
