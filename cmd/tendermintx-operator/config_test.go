// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/lightbridge/tendermintx-operator/lightclient"
)

var (
	testStepID = "0x" + strings.Repeat("11", 32)
	testSkipID = "0x" + strings.Repeat("22", 32)
	testAddr   = "0x00000000000000000000000000000000000000aa"
)

func baseArgs() []string {
	return []string{
		"--operator.chain-id", "11155111",
		"--operator.step-function-id", testStepID,
		"--operator.skip-function-id", testSkipID,
		"--contract.address", testAddr,
		"--proof-network.api-key", "secret",
	}
}

func TestLoopModeConfig(t *testing.T) {
	args := append(baseArgs(), "--contract.url", "http://localhost:8545", "--operator.loop-interval", "30m")
	config, manual, err := parseOperatorConfig(args)
	require.NoError(t, err)
	require.Nil(t, manual)
	require.Equal(t, uint32(11155111), config.Operator.ChainID)
	require.Equal(t, 30*time.Minute, config.Operator.LoopInterval)
	require.Equal(t, common.HexToHash(testStepID), config.Operator.StepFunctionHash())
	require.Equal(t, common.HexToHash(testSkipID), config.Operator.SkipFunctionHash())
	require.Equal(t, string(lightclient.KindTendermintX), config.Contract.Kind)
	require.Equal(t, "http://localhost:26657", config.Tendermint.URL)
	require.True(t, config.Tendermint.VerifySkip)
}

func TestDefaultLoopInterval(t *testing.T) {
	args := append(baseArgs(), "--contract.url", "http://localhost:8545")
	config, _, err := parseOperatorConfig(args)
	require.NoError(t, err)
	require.Equal(t, 240*time.Minute, config.Operator.LoopInterval)
}

func TestLoopModeRequiresContractURL(t *testing.T) {
	_, _, err := parseOperatorConfig(baseArgs())
	require.Error(t, err)
}

func TestManualModeConfig(t *testing.T) {
	hash := "0x" + strings.Repeat("ab", 32)
	args := append(baseArgs(), hash, "100", "150")
	config, manual, err := parseOperatorConfig(args)
	require.NoError(t, err)
	require.NotNil(t, config)
	require.NotNil(t, manual)
	require.Equal(t, common.HexToHash(hash), manual.TrustedHash)
	require.Equal(t, uint64(100), manual.TrustedHeight)
	require.Equal(t, uint64(150), manual.TargetHeight)
}

func TestManualModeKeepsInvalidRangeForOperator(t *testing.T) {
	// range checks are logged by the operator, not rejected as usage errors
	_, manual, err := parseOperatorConfig(append(baseArgs(), strings.Repeat("ab", 32), "100", "100"))
	require.NoError(t, err)
	require.Equal(t, manual.TrustedHeight, manual.TargetHeight)
}

func TestBadPositionalArguments(t *testing.T) {
	hash := strings.Repeat("ab", 32)
	for _, positional := range [][]string{
		{hash},
		{hash, "100"},
		{hash, "100", "101", "102"},
		{"0x1234", "100", "101"},
		{hash, "100", "ten"},
	} {
		_, _, err := parseOperatorConfig(append(baseArgs(), positional...))
		require.ErrorIs(t, err, ErrBadArguments, positional)
	}
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("TMX_CONTRACT_URL", "http://rpc.example:8545")
	t.Setenv("TMX_TENDERMINT_VERIFY__SKIP", "false")
	args := append(baseArgs(), "--conf.env-prefix", "TMX")
	config, _, err := parseOperatorConfig(args)
	require.NoError(t, err)
	require.Equal(t, "http://rpc.example:8545", config.Contract.URL)
	require.False(t, config.Tendermint.VerifySkip)
}

func TestInvalidConfig(t *testing.T) {
	for _, extra := range [][]string{
		{"--operator.step-function-id", "0x12"},
		{"--operator.chain-id", "0"},
		{"--contract.kind", "optimism"},
		{"--contract.address", "nope"},
		{"--proof-network.api-key", ""},
		{"--proof-network.url", "ftp://x"},
	} {
		args := append(baseArgs(), "--contract.url", "http://localhost:8545")
		_, _, err := parseOperatorConfig(append(args, extra...))
		require.Error(t, err, extra)
	}
}
