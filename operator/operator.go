// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package operator drives the light client forward: every cycle it checks the
// contract still agrees with the source chain, picks the next target block
// and asks the proving network for a proof.
package operator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/lightbridge/tendermintx-operator/bridge"
	"github.com/lightbridge/tendermintx-operator/journal"
	"github.com/lightbridge/tendermintx-operator/proofnet"
	"github.com/lightbridge/tendermintx-operator/util/ephemeralerror"
	"github.com/lightbridge/tendermintx-operator/util/stopwaiter"
)

var (
	syncedHeightGauge = metrics.NewRegisteredGauge("tendermintx/operator/synced_height", nil)
	chainHeadGauge    = metrics.NewRegisteredGauge("tendermintx/operator/chain_head", nil)
	targetGauge       = metrics.NewRegisteredGauge("tendermintx/operator/target", nil)

	stepSubmittedCounter    = metrics.NewRegisteredCounter("tendermintx/operator/submissions/step", nil)
	skipSubmittedCounter    = metrics.NewRegisteredCounter("tendermintx/operator/submissions/skip", nil)
	submissionFailedCounter = metrics.NewRegisteredCounter("tendermintx/operator/submissions/failed", nil)
	cycleErrorCounter       = metrics.NewRegisteredCounter("tendermintx/operator/cycles/errors", nil)
)

// Consecutive failed cycles logged as warnings before escalating to errors.
const cycleFailuresBeforeError = 3

// Contract is the light client as the operator uses it: read in loop mode,
// encode callbacks in both modes.
type Contract interface {
	bridge.BridgeContract
	bridge.CallEncoder
	Address() common.Address
}

type ProofNetwork interface {
	Submit(ctx context.Context, submission *proofnet.Submission) (string, error)
}

// TrustedHashResolver supplies the header hash of the trusted block a request
// starts from.
type TrustedHashResolver interface {
	TrustedHash(ctx context.Context, height uint64) (bridge.HeaderHash, error)
}

type contractHashResolver struct {
	contract bridge.BridgeContract
}

func (r contractHashResolver) TrustedHash(ctx context.Context, height uint64) (bridge.HeaderHash, error) {
	hash, err := r.contract.HeaderHashAt(ctx, height)
	if err != nil {
		return bridge.HeaderHash{}, fmt.Errorf("fetching trusted header hash %d from contract: %w", height, err)
	}
	return hash, nil
}

// StaticHash resolves every height to the same caller supplied hash.
type StaticHash bridge.HeaderHash

func (h StaticHash) TrustedHash(context.Context, uint64) (bridge.HeaderHash, error) {
	return bridge.HeaderHash(h), nil
}

type Operator struct {
	stopwaiter.StopWaiter
	config       ConfigFetcher
	contract     Contract
	source       bridge.HeaderSource
	verifier     bridge.SkipVerifier
	prover       ProofNetwork
	builder      *bridge.Builder
	journal      journal.Journal
	fatalErrChan chan<- error
	cycleErrors  *ephemeralerror.CountEphemeralErrorLogger
}

// NewOperator wires the collaborators. source and verifier may be nil when
// only manual submissions are made; verifier may also be nil in loop mode, in
// which case the largest allowed skip is always requested.
func NewOperator(
	config ConfigFetcher,
	contract Contract,
	source bridge.HeaderSource,
	verifier bridge.SkipVerifier,
	prover ProofNetwork,
	fatalErrChan chan<- error,
) (*Operator, error) {
	if contract == nil {
		return nil, errors.New("operator requires a light client contract")
	}
	if prover == nil {
		return nil, errors.New("operator requires a proving network client")
	}
	cfg := config()
	return &Operator{
		config:       config,
		contract:     contract,
		source:       source,
		verifier:     verifier,
		prover:       prover,
		builder:      bridge.NewBuilder(cfg.StepFunctionHash(), cfg.SkipFunctionHash(), contract),
		fatalErrChan: fatalErrChan,
		cycleErrors:  ephemeralerror.NewCountEphemeralErrorLogger(log.Warn, log.Error, cycleFailuresBeforeError),
	}, nil
}

// SetJournal makes the operator record every accepted request.
func (o *Operator) SetJournal(j journal.Journal) {
	o.journal = j
}

func (o *Operator) Start(ctxIn context.Context) error {
	if o.source == nil {
		return errors.New("loop mode requires a source chain client")
	}
	o.StopWaiter.Start(ctxIn, o)
	o.CallIteratively(o.iterate)
	return nil
}

func (o *Operator) iterate(ctx context.Context) time.Duration {
	config := o.config()
	cycleCtx := ctx
	if config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, config.CycleTimeout)
		defer cancel()
	}
	err := o.RunCycle(cycleCtx)
	if err == nil {
		o.cycleErrors.Reset()
		return config.LoopInterval
	}
	if bridge.IsFatal(err) {
		log.Error("light client diverged from source chain, halting", "err", err)
		if o.fatalErrChan != nil {
			select {
			case o.fatalErrChan <- err:
			default:
			}
		}
		o.StopOnly()
		return 0
	}
	if ctx.Err() != nil {
		return 0
	}
	cycleErrorCounter.Inc(1)
	o.cycleErrors.Error("proof request cycle failed", "err", err, "retryIn", config.LoopInterval)
	return config.LoopInterval
}

// RunCycle performs one loop iteration: consistency check, target selection
// and submission. A *bridge.ConsistencyError means the loop must stop.
func (o *Operator) RunCycle(ctx context.Context) error {
	synced, err := o.contract.SyncedHeight(ctx)
	if err != nil {
		return fmt.Errorf("reading synced height: %w", err)
	}
	syncedHeightGauge.Update(int64(synced))

	if err := bridge.CheckConsistency(ctx, synced, o.source, o.contract); err != nil {
		return err
	}

	head, err := o.source.LatestHeight(ctx)
	if err != nil {
		return fmt.Errorf("reading source chain head: %w", err)
	}
	chainHeadGauge.Update(int64(head))
	maxSkip, err := o.contract.MaxSkip(ctx)
	if err != nil {
		return fmt.Errorf("reading max skip: %w", err)
	}

	target, ok, err := bridge.SelectTarget(ctx, synced, head, maxSkip, o.verifier)
	if err != nil {
		return err
	}
	if !ok {
		log.Info("light client is up to date", "synced", synced, "head", head, "maxSkip", maxSkip)
		return nil
	}
	targetGauge.Update(int64(target))
	log.Info("requesting light client update", "current", synced, "target", target, "head", head, "maxSkip", maxSkip)

	_, err = o.submit(ctx, contractHashResolver{o.contract}, synced, target, false)
	return err
}

// SubmitManual submits a single request for an explicit trusted block.
func (o *Operator) SubmitManual(ctx context.Context, trustedHash bridge.HeaderHash, trustedHeight, targetHeight uint64) (string, error) {
	if trustedHeight >= targetHeight {
		log.Error("invalid manual request", "trusted", trustedHeight, "target", targetHeight, "trustedHash", trustedHash)
		return "", fmt.Errorf("%w: trusted %d, target %d", bridge.ErrInvalidRange, trustedHeight, targetHeight)
	}
	return o.submit(ctx, StaticHash(trustedHash), trustedHeight, targetHeight, true)
}

func (o *Operator) submit(ctx context.Context, resolver TrustedHashResolver, trustedHeight, targetHeight uint64, manual bool) (string, error) {
	trustedHash, err := resolver.TrustedHash(ctx, trustedHeight)
	if err != nil {
		return "", err
	}
	req, err := o.builder.Build(trustedHeight, trustedHash, targetHeight)
	if err != nil {
		return "", err
	}
	config := o.config()
	submission := &proofnet.Submission{
		ChainID:    config.ChainID,
		To:         o.contract.Address(),
		Data:       req.CallData,
		FunctionID: req.FunctionID,
		Input:      req.PublicInput,
	}
	id, err := o.prover.Submit(ctx, submission)
	if err != nil {
		submissionFailedCounter.Inc(1)
		log.Error(req.Kind.String()+" request failed", "trusted", trustedHeight, "target", targetHeight, "err", err)
		return "", fmt.Errorf("submitting %v request: %w", req.Kind, err)
	}
	if req.Kind == bridge.StepRequest {
		stepSubmittedCounter.Inc(1)
	} else {
		skipSubmittedCounter.Inc(1)
	}
	log.Info(req.Kind.String()+" request submitted", "trusted", trustedHeight, "target", targetHeight, "requestId", id)
	// accepted ids are also logged framed so tooling tailing the log can pick them up
	log.Info(FrameRequestID(id))

	if o.journal != nil {
		entry := &journal.Entry{
			RequestID:     id,
			Kind:          req.Kind.String(),
			TrustedHeight: trustedHeight,
			TargetHeight:  targetHeight,
			TrustedHash:   trustedHash,
			Manual:        manual,
			SubmittedAt:   time.Now().UTC(),
		}
		if err := o.journal.Record(ctx, entry); err != nil {
			log.Warn("failed to record proof request", "requestId", id, "err", err)
		}
	}
	return id, nil
}
