// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package lightclient reads the destination chain light client contract and
// encodes the callbacks it accepts.
package lightclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	flag "github.com/spf13/pflag"
	blobstreamx "github.com/succinctlabs/blobstreamx/bindings"

	"github.com/lightbridge/tendermintx-operator/bridge"
)

type Kind string

const (
	KindTendermintX Kind = "tendermintx"
	KindBlobstreamX Kind = "blobstreamx"
)

type methodNames struct {
	syncedHeight string
	headerHash   string
	maxSkip      string
	step         string
	skip         string
}

var kindMethods = map[Kind]methodNames{
	KindTendermintX: {
		syncedHeight: "latestBlock",
		headerHash:   "blockHeightToHeaderHash",
		maxSkip:      "skipMax",
		step:         "step",
		skip:         "skip",
	},
	KindBlobstreamX: {
		syncedHeight: "latestBlock",
		headerHash:   "blockHeightToHeaderHash",
		maxSkip:      "DATA_COMMITMENT_MAX",
		step:         "commitNextHeader",
		skip:         "commitHeaderRange",
	},
}

type Config struct {
	URL     string `koanf:"url"`
	Address string `koanf:"address"`
	Kind    string `koanf:"kind"`
}

var DefaultConfig = Config{
	URL:     "",
	Address: "",
	Kind:    string(KindTendermintX),
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", DefaultConfig.URL, "RPC URL of the chain hosting the light client contract")
	f.String(prefix+".address", DefaultConfig.Address, "address of the light client contract")
	f.String(prefix+".kind", DefaultConfig.Kind, "light client contract flavour (tendermintx or blobstreamx)")
}

func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("invalid light client contract address %q", c.Address)
	}
	if _, ok := kindMethods[Kind(c.Kind)]; !ok {
		return fmt.Errorf("unknown light client contract kind %q", c.Kind)
	}
	return nil
}

// ValidateEndpoint is only needed by callers that read the contract.
func (c *Config) ValidateEndpoint() error {
	if c.URL == "" {
		return errors.New("light client contract url must be set")
	}
	return nil
}

func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Address)
}

func contractABI(kind Kind) (*abi.ABI, error) {
	switch kind {
	case KindTendermintX:
		parsed, err := abi.JSON(strings.NewReader(tendermintXABI))
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	case KindBlobstreamX:
		return blobstreamx.BlobstreamXMetaData.GetAbi()
	default:
		return nil, fmt.Errorf("unknown light client contract kind %q", kind)
	}
}

// Contract implements bridge.BridgeContract and bridge.CallEncoder.
type Contract struct {
	address common.Address
	abi     *abi.ABI
	methods methodNames
	bound   *bind.BoundContract
}

// NewContract binds to the light client at address. backend may be nil when
// only calldata encoding is needed.
func NewContract(kind Kind, address common.Address, backend bind.ContractCaller) (*Contract, error) {
	methods, ok := kindMethods[kind]
	if !ok {
		return nil, fmt.Errorf("unknown light client contract kind %q", kind)
	}
	parsed, err := contractABI(kind)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{methods.syncedHeight, methods.headerHash, methods.maxSkip, methods.step, methods.skip} {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, fmt.Errorf("%s abi has no method %s", kind, name)
		}
	}
	contract := &Contract{
		address: address,
		abi:     parsed,
		methods: methods,
	}
	if backend != nil {
		contract.bound = bind.NewBoundContract(address, *parsed, backend, nil, nil)
	}
	return contract, nil
}

func Dial(ctx context.Context, config *Config) (*Contract, error) {
	client, err := ethclient.DialContext(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", config.URL, err)
	}
	return NewContract(Kind(config.Kind), config.ContractAddress(), client)
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	if c.bound == nil {
		return nil, errors.New("light client contract has no backend")
	}
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("calling %s on %v: %w", method, c.address, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	return out[0], nil
}

func (c *Contract) callUint64(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint64)).(*uint64), nil
}

func (c *Contract) SyncedHeight(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, c.methods.syncedHeight)
}

func (c *Contract) MaxSkip(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, c.methods.maxSkip)
}

func (c *Contract) HeaderHashAt(ctx context.Context, height uint64) (bridge.HeaderHash, error) {
	out, err := c.call(ctx, c.methods.headerHash, height)
	if err != nil {
		return bridge.HeaderHash{}, err
	}
	return *abi.ConvertType(out, new([32]byte)).(*[32]byte), nil
}

func (c *Contract) EncodeStep(trustedHeight uint64) ([]byte, error) {
	return c.abi.Pack(c.methods.step, trustedHeight)
}

func (c *Contract) EncodeSkip(trustedHeight, targetHeight uint64) ([]byte, error) {
	return c.abi.Pack(c.methods.skip, trustedHeight, targetHeight)
}
