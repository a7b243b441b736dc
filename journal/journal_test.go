// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lightbridge/tendermintx-operator/util/redisutil"
	"github.com/lightbridge/tendermintx-operator/util/testhelpers"
)

func TestJournalDisabled(t *testing.T) {
	j, err := New(&DefaultConfig, 1, testhelpers.RandomAddress())
	require.NoError(t, err)
	require.Nil(t, j)
}

func TestJournalRecordsAndTrims(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	config := Config{RedisURL: redisutil.CreateTestRedis(ctx, t), MaxEntries: 3}
	contract := testhelpers.RandomAddress()

	j, err := New(&config, 11155111, contract)
	require.NoError(t, err)
	require.NotNil(t, j)
	defer j.Close()

	var written []*Entry
	for i := uint64(0); i < 5; i++ {
		entry := &Entry{
			RequestID:     fmt.Sprintf("req-%d", i),
			Kind:          "skip",
			TrustedHeight: 100 * i,
			TargetHeight:  100*i + 50,
			TrustedHash:   testhelpers.RandomHash(),
			SubmittedAt:   time.Unix(int64(i), 0).UTC(),
		}
		require.NoError(t, j.Record(ctx, entry))
		written = append(written, entry)
	}

	entries, err := j.Entries(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(written[2:], entries); diff != "" {
		t.Fatalf("journal entries mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Key(11155111, contract), j.key)
}

func TestConfigValidate(t *testing.T) {
	config := Config{RedisURL: "redis://localhost:6379/0", MaxEntries: 0}
	require.Error(t, config.Validate())
	config.MaxEntries = 1
	require.NoError(t, config.Validate())
	require.NoError(t, DefaultConfig.Validate())
}
