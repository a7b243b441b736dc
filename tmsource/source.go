// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package tmsource reads signed headers and validator sets from a Tendermint
// RPC endpoint.
package tmsource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
	flag "github.com/spf13/pflag"
	tmhttp "github.com/tendermint/tendermint/rpc/client/http"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/lightbridge/tendermintx-operator/bridge"
)

// validatorsPerPage is the largest page the Tendermint RPC serves.
const validatorsPerPage = 100

var ErrMissingHeader = errors.New("tendermint rpc returned no header")

type Config struct {
	URL                 string        `koanf:"url"`
	Timeout             time.Duration `koanf:"timeout"`
	VerifySkip          bool          `koanf:"verify-skip"`
	MaxValidatorSetSize int           `koanf:"max-validator-set-size"`
	CacheSize           int           `koanf:"cache-size"`
}

var DefaultConfig = Config{
	URL:                 "http://localhost:26657",
	Timeout:             30 * time.Second,
	VerifySkip:          true,
	MaxValidatorSetSize: 100,
	CacheSize:           64,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", DefaultConfig.URL, "tendermint RPC endpoint of the source chain")
	f.Duration(prefix+".timeout", DefaultConfig.Timeout, "timeout of a single tendermint RPC request")
	f.Bool(prefix+".verify-skip", DefaultConfig.VerifySkip, "only request skips the trusted validator set can verify (>1/3 of its voting power signed the target)")
	f.Int(prefix+".max-validator-set-size", DefaultConfig.MaxValidatorSetSize, "largest validator set a target block may have")
	f.Int(prefix+".cache-size", DefaultConfig.CacheSize, "number of heights whose header hash and validator set are cached (0 disables)")
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("tendermint url must be set")
	}
	if c.MaxValidatorSetSize <= 0 {
		return fmt.Errorf("tendermint max-validator-set-size must be positive, got %d", c.MaxValidatorSetSize)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("tendermint cache-size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// RPCClient is the subset of the Tendermint RPC used here; *tmhttp.HTTP
// implements it.
type RPCClient interface {
	Commit(ctx context.Context, height *int64) (*ctypes.ResultCommit, error)
	Validators(ctx context.Context, height *int64, page, perPage *int) (*ctypes.ResultValidators, error)
}

// Source caches by-height results, which never change once a block is
// committed. The chain head is always fetched.
type Source struct {
	client              RPCClient
	maxValidatorSetSize int
	headerHashes        *lru.Cache[uint64, bridge.HeaderHash]
	validatorSets       *lru.Cache[uint64, []*tmtypes.Validator]
}

// NewSource returns a Source without caching when cacheSize is not positive.
func NewSource(client RPCClient, maxValidatorSetSize int, cacheSize int) *Source {
	source := &Source{
		client:              client,
		maxValidatorSetSize: maxValidatorSetSize,
	}
	if cacheSize > 0 {
		// Can't fail because cacheSize > 0
		source.headerHashes, _ = lru.New[uint64, bridge.HeaderHash](cacheSize)
		source.validatorSets, _ = lru.New[uint64, []*tmtypes.Validator](cacheSize)
	}
	return source
}

func Dial(config *Config) (*Source, error) {
	timeoutSecs := uint(math.Ceil(config.Timeout.Seconds()))
	client, err := tmhttp.NewWithTimeout(config.URL, "/websocket", timeoutSecs)
	if err != nil {
		return nil, fmt.Errorf("connecting to tendermint rpc %s: %w", config.URL, err)
	}
	return NewSource(client, config.MaxValidatorSetSize, config.CacheSize), nil
}

func toRPCHeight(height uint64) (*int64, error) {
	if height > math.MaxInt64 {
		return nil, fmt.Errorf("height %d out of range", height)
	}
	h := int64(height)
	return &h, nil
}

func (s *Source) signedHeader(ctx context.Context, height *int64) (*tmtypes.SignedHeader, error) {
	res, err := s.client.Commit(ctx, height)
	if err != nil {
		return nil, err
	}
	if res == nil || res.SignedHeader.Header == nil {
		return nil, ErrMissingHeader
	}
	if height != nil && res.SignedHeader.Header.Height != *height {
		return nil, fmt.Errorf("asked for header %d, tendermint rpc returned %d", *height, res.SignedHeader.Header.Height)
	}
	return &res.SignedHeader, nil
}

func headerHash(header *tmtypes.Header) (bridge.HeaderHash, error) {
	hash := header.Hash()
	if len(hash) != common.HashLength {
		return bridge.HeaderHash{}, fmt.Errorf("header %d hashed to %d bytes", header.Height, len(hash))
	}
	return common.BytesToHash(hash), nil
}

// LatestSignedHeader returns the height and hash of the chain head.
func (s *Source) LatestSignedHeader(ctx context.Context) (uint64, bridge.HeaderHash, error) {
	sh, err := s.signedHeader(ctx, nil)
	if err != nil {
		return 0, bridge.HeaderHash{}, fmt.Errorf("fetching latest signed header: %w", err)
	}
	if sh.Header.Height < 0 {
		return 0, bridge.HeaderHash{}, fmt.Errorf("latest header has negative height %d", sh.Header.Height)
	}
	hash, err := headerHash(sh.Header)
	if err != nil {
		return 0, bridge.HeaderHash{}, err
	}
	return uint64(sh.Header.Height), hash, nil
}

func (s *Source) LatestHeight(ctx context.Context) (uint64, error) {
	height, _, err := s.LatestSignedHeader(ctx)
	return height, err
}

func (s *Source) HeaderHashAt(ctx context.Context, height uint64) (bridge.HeaderHash, error) {
	if s.headerHashes != nil {
		if hash, ok := s.headerHashes.Get(height); ok {
			return hash, nil
		}
	}
	rpcHeight, err := toRPCHeight(height)
	if err != nil {
		return bridge.HeaderHash{}, err
	}
	sh, err := s.signedHeader(ctx, rpcHeight)
	if err != nil {
		return bridge.HeaderHash{}, fmt.Errorf("fetching signed header %d: %w", height, err)
	}
	hash, err := headerHash(sh.Header)
	if err != nil {
		return bridge.HeaderHash{}, err
	}
	if s.headerHashes != nil {
		s.headerHashes.Add(height, hash)
	}
	return hash, nil
}

// ValidatorSet collects every page of the validator set at height.
func (s *Source) ValidatorSet(ctx context.Context, height uint64) ([]*tmtypes.Validator, error) {
	if s.validatorSets != nil {
		if validators, ok := s.validatorSets.Get(height); ok {
			return validators, nil
		}
	}
	rpcHeight, err := toRPCHeight(height)
	if err != nil {
		return nil, err
	}
	var validators []*tmtypes.Validator
	perPage := validatorsPerPage
	for page := 1; ; page++ {
		currentPage := page
		res, err := s.client.Validators(ctx, rpcHeight, &currentPage, &perPage)
		if err != nil {
			return nil, fmt.Errorf("fetching validators at %d (page %d): %w", height, page, err)
		}
		validators = append(validators, res.Validators...)
		if len(res.Validators) == 0 || len(validators) >= res.Total {
			break
		}
	}
	if s.validatorSets != nil {
		s.validatorSets.Add(height, validators)
	}
	return validators, nil
}

// CanSkip reports whether the validators trusted at trustedHeight that signed
// the commit of targetHeight hold more than a third of the trusted voting
// power, and the target validator set fits the circuit.
func (s *Source) CanSkip(ctx context.Context, trustedHeight, targetHeight uint64) (bool, error) {
	if targetHeight <= trustedHeight {
		return false, bridge.ErrInvalidRange
	}
	if targetHeight == trustedHeight+1 {
		return true, nil
	}
	targetValidators, err := s.ValidatorSet(ctx, targetHeight)
	if err != nil {
		return false, err
	}
	if len(targetValidators) > s.maxValidatorSetSize {
		log.Info("target validator set too large", "target", targetHeight, "validators", len(targetValidators), "max", s.maxValidatorSetSize)
		return false, nil
	}
	trustedValidators, err := s.ValidatorSet(ctx, trustedHeight)
	if err != nil {
		return false, err
	}
	rpcHeight, err := toRPCHeight(targetHeight)
	if err != nil {
		return false, err
	}
	target, err := s.signedHeader(ctx, rpcHeight)
	if err != nil {
		return false, fmt.Errorf("fetching signed header %d: %w", targetHeight, err)
	}
	if target.Commit == nil {
		return false, fmt.Errorf("signed header %d has no commit", targetHeight)
	}
	return hasTrustedQuorum(trustedValidators, target.Commit.Signatures), nil
}

func hasTrustedQuorum(trusted []*tmtypes.Validator, signatures []tmtypes.CommitSig) bool {
	power := make(map[string]int64, len(trusted))
	var total int64
	for _, v := range trusted {
		power[string(v.Address)] = v.VotingPower
		total += v.VotingPower
	}
	var shared int64
	for _, sig := range signatures {
		if sig.BlockIDFlag != tmtypes.BlockIDFlagCommit {
			continue
		}
		shared += power[string(sig.ValidatorAddress)]
		// Count each trusted validator once.
		delete(power, string(sig.ValidatorAddress))
	}
	return total > 0 && 3*shared > total
}
