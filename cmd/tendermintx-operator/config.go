// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"errors"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/lightbridge/tendermintx-operator/bridge"
	"github.com/lightbridge/tendermintx-operator/cmd/genericconf"
	"github.com/lightbridge/tendermintx-operator/cmd/util/confighelpers"
	"github.com/lightbridge/tendermintx-operator/journal"
	"github.com/lightbridge/tendermintx-operator/lightclient"
	"github.com/lightbridge/tendermintx-operator/operator"
	"github.com/lightbridge/tendermintx-operator/proofnet"
	"github.com/lightbridge/tendermintx-operator/tmsource"
)

type OperatorConfig struct {
	Operator       operator.Config    `koanf:"operator"`
	Contract       lightclient.Config `koanf:"contract"`
	Tendermint     tmsource.Config    `koanf:"tendermint"`
	ProofNetwork   proofnet.Config    `koanf:"proof-network"`
	RequestJournal journal.Config     `koanf:"request-journal"`

	Conf        genericconf.ConfConfig        `koanf:"conf"`
	LogLevel    string                        `koanf:"log-level"`
	LogType     string                        `koanf:"log-type"`
	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging"`

	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
}

var DefaultOperatorConfig = OperatorConfig{
	Operator:       operator.DefaultConfig,
	Contract:       lightclient.DefaultConfig,
	Tendermint:     tmsource.DefaultConfig,
	ProofNetwork:   proofnet.DefaultConfig,
	RequestJournal: journal.DefaultConfig,
	Conf:           genericconf.ConfConfigDefault,
	LogLevel:       "info",
	LogType:        "plaintext",
	FileLogging:    genericconf.DefaultFileLoggingConfig,
	Metrics:        false,
	MetricsServer:  genericconf.MetricsServerConfigDefault,
}

// Validate checks what the chosen mode needs. Manual mode never reads the
// contract or the source chain.
func (c *OperatorConfig) Validate(manual bool) error {
	if err := c.Operator.Validate(); err != nil {
		return err
	}
	if err := c.Contract.Validate(); err != nil {
		return err
	}
	if !manual {
		if err := c.Contract.ValidateEndpoint(); err != nil {
			return err
		}
		if err := c.Tendermint.Validate(); err != nil {
			return err
		}
	}
	if err := c.ProofNetwork.Validate(); err != nil {
		return err
	}
	return c.RequestJournal.Validate()
}

// ManualRequest is a single request given on the command line.
type ManualRequest struct {
	TrustedHash   bridge.HeaderHash
	TrustedHeight uint64
	TargetHeight  uint64
}

var ErrBadArguments = errors.New("bad positional arguments")

// parseManualRequest accepts either no arguments (loop mode) or
// <trusted-header-hash> <trusted-height> <target-height>.
func parseManualRequest(args []string) (*ManualRequest, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) != 3 {
		return nil, fmt.Errorf("%w: expected 0 or 3, got %d", ErrBadArguments, len(args))
	}
	hash, err := bridge.ParseHash(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: trusted header hash: %v", ErrBadArguments, err)
	}
	trusted, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: trusted height: %v", ErrBadArguments, err)
	}
	target, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: target height: %v", ErrBadArguments, err)
	}
	return &ManualRequest{
		TrustedHash:   hash,
		TrustedHeight: trusted,
		TargetHeight:  target,
	}, nil
}

func operatorFlagSet() *flag.FlagSet {
	f := flag.NewFlagSet("tendermintx-operator", flag.ContinueOnError)
	operator.ConfigAddOptions("operator", f)
	lightclient.ConfigAddOptions("contract", f)
	tmsource.ConfigAddOptions("tendermint", f)
	proofnet.ConfigAddOptions("proof-network", f)
	journal.ConfigAddOptions("request-journal", f)

	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", DefaultOperatorConfig.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", DefaultOperatorConfig.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)

	f.Bool("metrics", DefaultOperatorConfig.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)
	return f
}

// parseOperatorConfig returns the validated config and, when positional
// arguments were given, the manual request. It returns (nil, nil, nil) after
// printing the config for --conf.dump.
func parseOperatorConfig(args []string) (*OperatorConfig, *ManualRequest, error) {
	f := operatorFlagSet()
	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, nil, err
	}
	manual, err := parseManualRequest(f.Args())
	if err != nil {
		return nil, nil, err
	}

	var config OperatorConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, nil, err
	}
	if config.Conf.Dump {
		err = confighelpers.DumpConfig(k, map[string]interface{}{
			"proof-network.api-key": "",
		})
		if err != nil {
			return nil, nil, err
		}
		c, err := confighelpers.MarshalConfig(k)
		if err != nil {
			return nil, nil, err
		}
		fmt.Println(string(c))
		return nil, nil, nil
	}
	if err := config.Validate(manual != nil); err != nil {
		return nil, nil, err
	}
	return &config, manual, nil
}
