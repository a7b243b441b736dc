// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package operator

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"

	"github.com/lightbridge/tendermintx-operator/bridge"
)

type Config struct {
	ChainID        uint32        `koanf:"chain-id"`
	StepFunctionID string        `koanf:"step-function-id"`
	SkipFunctionID string        `koanf:"skip-function-id"`
	LoopInterval   time.Duration `koanf:"loop-interval"`
	CycleTimeout   time.Duration `koanf:"cycle-timeout"`

	stepFunctionID common.Hash
	skipFunctionID common.Hash
}

var DefaultConfig = Config{
	ChainID:      0,
	LoopInterval: 240 * time.Minute,
	CycleTimeout: 10 * time.Minute,
}

var TestConfig = Config{
	ChainID:        5,
	StepFunctionID: "0x" + common.Bytes2Hex(common.LeftPadBytes([]byte{0x01}, 32)),
	SkipFunctionID: "0x" + common.Bytes2Hex(common.LeftPadBytes([]byte{0x02}, 32)),
	LoopInterval:   time.Millisecond * 10,
	CycleTimeout:   time.Second,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint32(prefix+".chain-id", DefaultConfig.ChainID, "chain id of the chain the light client contract lives on")
	f.String(prefix+".step-function-id", DefaultConfig.StepFunctionID, "32 byte hex id of the step circuit on the proving network")
	f.String(prefix+".skip-function-id", DefaultConfig.SkipFunctionID, "32 byte hex id of the skip circuit on the proving network")
	f.Duration(prefix+".loop-interval", DefaultConfig.LoopInterval, "time to wait between two proof request cycles")
	f.Duration(prefix+".cycle-timeout", DefaultConfig.CycleTimeout, "timeout of a single cycle (0 disables)")
}

// Validate also decodes the function ids, so it must run before they are used.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return errors.New("chain-id must be set")
	}
	var err error
	if c.stepFunctionID, err = bridge.ParseHash(c.StepFunctionID); err != nil {
		return fmt.Errorf("step-function-id: %w", err)
	}
	if c.skipFunctionID, err = bridge.ParseHash(c.SkipFunctionID); err != nil {
		return fmt.Errorf("skip-function-id: %w", err)
	}
	if c.LoopInterval <= 0 {
		return errors.New("loop-interval must be positive")
	}
	if c.CycleTimeout < 0 {
		return errors.New("cycle-timeout must not be negative")
	}
	return nil
}

func (c *Config) StepFunctionHash() common.Hash {
	return c.stepFunctionID
}

func (c *Config) SkipFunctionHash() common.Hash {
	return c.skipFunctionID
}

type ConfigFetcher func() *Config
