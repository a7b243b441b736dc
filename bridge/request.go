// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// abi.encodePacked(uint64, bytes32)
	StepInputLength = 8 + common.HashLength
	// abi.encodePacked(uint64, bytes32, uint64)
	SkipInputLength = 8 + common.HashLength + 8
)

// Request is a ProofRequest together with everything the proving network
// needs to accept it.
type Request struct {
	ProofRequest
	FunctionID  common.Hash
	PublicInput []byte
	CallData    []byte
}

// NewProofRequest picks the request shape for a trusted/target pair.
func NewProofRequest(trustedHeight uint64, trustedHash HeaderHash, targetHeight uint64) (ProofRequest, error) {
	if trustedHeight >= targetHeight {
		return ProofRequest{}, fmt.Errorf("%w: trusted %d, target %d", ErrInvalidRange, trustedHeight, targetHeight)
	}
	kind := SkipRequest
	if targetHeight-trustedHeight == 1 {
		kind = StepRequest
	}
	return ProofRequest{
		Kind:              kind,
		TrustedHeight:     trustedHeight,
		TrustedHeaderHash: trustedHash,
		TargetHeight:      targetHeight,
	}, nil
}

// PublicInput returns the packed input the on-chain verifier hashes. Field
// order and widths match Solidity's abi.encodePacked.
func (r ProofRequest) PublicInput() []byte {
	size := StepInputLength
	if r.Kind == SkipRequest {
		size = SkipInputLength
	}
	input := make([]byte, 0, size)
	input = binary.BigEndian.AppendUint64(input, r.TrustedHeight)
	input = append(input, r.TrustedHeaderHash.Bytes()...)
	if r.Kind == SkipRequest {
		input = binary.BigEndian.AppendUint64(input, r.TargetHeight)
	}
	return input
}

// DecodePublicInput is the inverse of PublicInput. The request kind is
// recovered from the input length.
func DecodePublicInput(input []byte) (ProofRequest, error) {
	var req ProofRequest
	switch len(input) {
	case StepInputLength:
		req.Kind = StepRequest
	case SkipInputLength:
		req.Kind = SkipRequest
	default:
		return req, fmt.Errorf("unexpected public input length %d", len(input))
	}
	req.TrustedHeight = binary.BigEndian.Uint64(input[:8])
	req.TrustedHeaderHash = common.BytesToHash(input[8 : 8+common.HashLength])
	if req.Kind == SkipRequest {
		req.TargetHeight = binary.BigEndian.Uint64(input[8+common.HashLength:])
	} else {
		req.TargetHeight = req.TrustedHeight + 1
	}
	return req, nil
}

// Builder turns heights and an already resolved trusted hash into a Request.
// It performs no I/O.
type Builder struct {
	stepFunctionID common.Hash
	skipFunctionID common.Hash
	calls          CallEncoder
}

func NewBuilder(stepFunctionID, skipFunctionID common.Hash, calls CallEncoder) *Builder {
	return &Builder{
		stepFunctionID: stepFunctionID,
		skipFunctionID: skipFunctionID,
		calls:          calls,
	}
}

func (b *Builder) Build(trustedHeight uint64, trustedHash HeaderHash, targetHeight uint64) (*Request, error) {
	proofReq, err := NewProofRequest(trustedHeight, trustedHash, targetHeight)
	if err != nil {
		return nil, err
	}
	req := &Request{
		ProofRequest: proofReq,
		PublicInput:  proofReq.PublicInput(),
	}
	switch proofReq.Kind {
	case StepRequest:
		req.FunctionID = b.stepFunctionID
		req.CallData, err = b.calls.EncodeStep(trustedHeight)
	case SkipRequest:
		req.FunctionID = b.skipFunctionID
		req.CallData, err = b.calls.EncodeSkip(trustedHeight, targetHeight)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %v callback: %w", proofReq.Kind, err)
	}
	return req, nil
}
