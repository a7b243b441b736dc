// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package redisutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/lightbridge/tendermintx-operator/util/testhelpers"
)

// CreateTestRedis returns the url of the redis named by TEST_REDIS, or of a
// fresh miniredis that is closed when ctx is done or the test ends.
func CreateTestRedis(ctx context.Context, t *testing.T) string {
	if url := os.Getenv("TEST_REDIS"); url != "" {
		return url
	}
	server := miniredis.NewMiniRedis()
	testhelpers.RequireImpl(t, server.Start())
	var once sync.Once
	stop := func() { once.Do(server.Close) }
	t.Cleanup(stop)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return fmt.Sprintf("redis://%s/0", server.Addr())
}
