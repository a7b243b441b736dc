// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package lightclient

// tendermintXABI covers the TendermintX functions the operator reads and the
// callbacks the proving network invokes once a proof is ready.
const tendermintXABI = `[
  {"type":"function","name":"latestBlock","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
  {"type":"function","name":"skipMax","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
  {"type":"function","name":"blockHeightToHeaderHash","stateMutability":"view","inputs":[{"name":"","type":"uint64"}],"outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"step","stateMutability":"nonpayable","inputs":[{"name":"_trustedBlock","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"skip","stateMutability":"nonpayable","inputs":[{"name":"_trustedBlock","type":"uint64"},{"name":"_targetBlock","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"stepFunctionId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"skipFunctionId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
]`
