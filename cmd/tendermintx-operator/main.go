// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"

	"github.com/lightbridge/tendermintx-operator/bridge"
	"github.com/lightbridge/tendermintx-operator/cmd/genericconf"
	"github.com/lightbridge/tendermintx-operator/cmd/util"
	"github.com/lightbridge/tendermintx-operator/cmd/util/confighelpers"
	"github.com/lightbridge/tendermintx-operator/journal"
	"github.com/lightbridge/tendermintx-operator/lightclient"
	"github.com/lightbridge/tendermintx-operator/operator"
	"github.com/lightbridge/tendermintx-operator/proofnet"
	"github.com/lightbridge/tendermintx-operator/tmsource"
)

func main() {
	os.Exit(mainImpl())
}

func printSampleUsage(progname string) {
	fmt.Printf("\n")
	fmt.Printf("Loop mode:                     %s --contract.url <rpc> --contract.address <addr> ...\n", progname)
	fmt.Printf("Manual mode:                   %s [flags] <trusted-header-hash> <trusted-height> <target-height>\n", progname)
	fmt.Printf("Sample usage:                  %s --help \n", progname)
}

// Returns the exit code
func mainImpl() int {
	config, manual, err := parseOperatorConfig(os.Args[1:])
	if errors.Is(err, ErrBadArguments) {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		printSampleUsage(os.Args[0])
		return 2
	}
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config == nil {
		// --conf.dump
		return 0
	}

	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	defer func() {
		if err := genericconf.CloseFileLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", err)
		}
	}()

	vcsRevision, vcsTime := confighelpers.GetVersion()
	log.Info("Running TendermintX operator", "revision", vcsRevision, "vcs.time", vcsTime, "manual", manual != nil)

	if err := util.StartMetrics(config.Metrics, &config.MetricsServer); err != nil {
		log.Error("Error starting metrics", "err", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	op, closeJournal, err := createOperator(ctx, config, manual != nil)
	if err != nil {
		log.Error("Error creating operator", "err", err)
		return 1
	}
	defer closeJournal()

	if manual != nil {
		_, err := op.SubmitManual(ctx, manual.TrustedHash, manual.TrustedHeight, manual.TargetHeight)
		if err != nil {
			log.Error("Manual proof request not submitted", "err", err)
		}
		return 0
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)

	if err := op.Start(ctx); err != nil {
		log.Error("Error starting operator", "err", err)
		return 1
	}
	defer op.StopAndWait()

	exitCode := 0
	select {
	case err := <-op.fatalErrChan:
		log.Error("shutting down due to fatal error", "err", err)
		exitCode = 1
	case <-sigint:
		log.Info("shutting down because of sigint")
	}
	return exitCode
}

type runningOperator struct {
	*operator.Operator
	fatalErrChan chan error
}

func createOperator(ctx context.Context, config *OperatorConfig, manual bool) (*runningOperator, func(), error) {
	kind := lightclient.Kind(config.Contract.Kind)
	var contract *lightclient.Contract
	var err error
	if manual {
		contract, err = lightclient.NewContract(kind, config.Contract.ContractAddress(), nil)
	} else {
		contract, err = lightclient.Dial(ctx, &config.Contract)
	}
	if err != nil {
		return nil, nil, err
	}

	var source bridge.HeaderSource
	var verifier bridge.SkipVerifier
	if !manual {
		tmSource, err := tmsource.Dial(&config.Tendermint)
		if err != nil {
			return nil, nil, err
		}
		source = tmSource
		if config.Tendermint.VerifySkip {
			verifier = tmSource
		}
	}

	fatalErrChan := make(chan error, 10)
	op, err := operator.NewOperator(
		func() *operator.Config { return &config.Operator },
		contract,
		source,
		verifier,
		proofnet.NewClient(&config.ProofNetwork),
		fatalErrChan,
	)
	if err != nil {
		return nil, nil, err
	}

	closeJournal := func() {}
	requestJournal, err := journal.New(&config.RequestJournal, config.Operator.ChainID, contract.Address())
	if err != nil {
		return nil, nil, err
	}
	if requestJournal != nil {
		op.SetJournal(requestJournal)
		closeJournal = func() {
			if err := requestJournal.Close(); err != nil {
				log.Warn("error closing request journal", "err", err)
			}
		}
	}
	return &runningOperator{Operator: op, fatalErrChan: fatalErrChan}, closeJournal, nil
}
