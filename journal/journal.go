// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package journal records accepted proof requests for downstream tracking.
// The operator never reads the journal back.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"github.com/lightbridge/tendermintx-operator/util/redisutil"
)

const keyPrefix = "tendermintx.requests."

type Entry struct {
	RequestID     string      `json:"requestId"`
	Kind          string      `json:"kind"`
	TrustedHeight uint64      `json:"trustedHeight"`
	TargetHeight  uint64      `json:"targetHeight"`
	TrustedHash   common.Hash `json:"trustedHash"`
	Manual        bool        `json:"manual"`
	SubmittedAt   time.Time   `json:"submittedAt"`
}

type Journal interface {
	Record(ctx context.Context, entry *Entry) error
}

type Config struct {
	RedisURL   string `koanf:"redis-url"`
	MaxEntries int64  `koanf:"max-entries"`
}

var DefaultConfig = Config{
	RedisURL:   "",
	MaxEntries: 10000,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".redis-url", DefaultConfig.RedisURL, "redis url to record submitted proof requests in (empty disables the journal)")
	f.Int64(prefix+".max-entries", DefaultConfig.MaxEntries, "number of most recent requests kept in the journal")
}

func (c *Config) Validate() error {
	if c.RedisURL != "" && c.MaxEntries <= 0 {
		return errors.New("request journal max-entries must be positive")
	}
	return nil
}

// Key is the redis list a given light client's requests are pushed to.
func Key(chainID uint32, contract common.Address) string {
	return fmt.Sprintf("%s%d.%s", keyPrefix, chainID, contract.Hex())
}

type RedisJournal struct {
	client     redis.UniversalClient
	key        string
	maxEntries int64
}

// New returns nil when no redis url is configured.
func New(config *Config, chainID uint32, contract common.Address) (*RedisJournal, error) {
	client, err := redisutil.RedisClientFromURL(config.RedisURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	return &RedisJournal{
		client:     client,
		key:        Key(chainID, contract),
		maxEntries: config.MaxEntries,
	}, nil
}

// Record appends the entry and trims the list to the newest maxEntries.
func (j *RedisJournal) Record(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = j.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, j.key, data)
		pipe.LTrim(ctx, j.key, -j.maxEntries, -1)
		return nil
	})
	return err
}

// Entries returns the recorded entries, oldest first. The operator never reads
// the journal back; Entries is for tooling that follows submitted requests.
func (j *RedisJournal) Entries(ctx context.Context) ([]*Entry, error) {
	raw, err := j.client.LRange(ctx, j.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decoding journal entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (j *RedisJournal) Close() error {
	return j.client.Close()
}
