// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package bridge

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// TargetUpperBound returns min(chainHead, current+maxSkip). ok is false when
// there is nothing to request.
func TargetUpperBound(current, chainHead, maxSkip uint64) (bound uint64, ok bool) {
	if current >= chainHead || maxSkip == 0 {
		return 0, false
	}
	bound = chainHead
	if chainHead-current > maxSkip {
		bound = current + maxSkip
	}
	return bound, true
}

// SelectTarget picks the highest block in (current, bound] that verifier
// accepts, halving the distance to current after every rejection. current+1
// is always accepted without asking. A nil verifier accepts the bound.
func SelectTarget(ctx context.Context, current, chainHead, maxSkip uint64, verifier SkipVerifier) (uint64, bool, error) {
	target, ok := TargetUpperBound(current, chainHead, maxSkip)
	if !ok {
		return 0, false, nil
	}
	if verifier == nil {
		return target, true, nil
	}
	for target-current > 1 {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		canSkip, err := verifier.CanSkip(ctx, current, target)
		if err != nil {
			return 0, false, fmt.Errorf("checking skip %d->%d: %w", current, target, err)
		}
		if canSkip {
			return target, true, nil
		}
		log.Debug("skip not verifiable, narrowing", "trusted", current, "target", target)
		target = current + (target-current)/2
	}
	return target, true, nil
}
