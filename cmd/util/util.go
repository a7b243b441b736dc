// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package util

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"

	"github.com/lightbridge/tendermintx-operator/cmd/genericconf"
)

// StartMetrics serves the registered metrics when enabled. The --metrics flag
// must be on the command line, since go-ethereum reads it from os.Args before
// any config file is loaded.
func StartMetrics(enabled bool, server *genericconf.MetricsServerConfig) error {
	if !enabled {
		return nil
	}
	if !metrics.Enabled {
		return errors.New("metrics must be enabled via command line by adding --metrics, json config has no effect")
	}
	if len(server.Addr) == 0 {
		return errors.New("metrics is enabled, but missing --metrics-server.addr")
	}
	go metrics.CollectProcessMetrics(server.UpdateInterval)
	exp.Setup(fmt.Sprintf("%v:%v", server.Addr, server.Port))
	return nil
}
