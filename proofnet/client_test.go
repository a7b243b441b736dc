// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package proofnet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return NewClient(&Config{URL: server.URL + "/", APIKey: "secret", Timeout: 5 * time.Second})
}

func TestSubmit(t *testing.T) {
	submission := &Submission{
		ChainID:    11155111,
		To:         common.HexToAddress("0x2Ea66c5E6a2cD8F0d9E94b1b8A5E4a2B1C3d4E5F"),
		Data:       []byte{0xde, 0xad},
		FunctionID: common.HexToHash("0x01"),
		Input:      []byte{0xbe, 0xef},
	}
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/request/new", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &fields))
		require.Equal(t, float64(11155111), fields["chainId"])
		require.Equal(t, "0xdead", fields["data"])
		require.Equal(t, "0xbeef", fields["input"])
		require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", fields["functionId"])

		_, _ = w.Write([]byte(`{"request_id":"01HQZX"}`))
	})

	id, err := client.Submit(context.Background(), submission)
	require.NoError(t, err)
	require.Equal(t, "01HQZX", id)
}

func TestSubmitRejected(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid function id", http.StatusBadRequest)
	})
	_, err := client.Submit(context.Background(), &Submission{})
	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))
	require.Equal(t, http.StatusBadRequest, submissionErr.StatusCode)
	require.Equal(t, "invalid function id", submissionErr.Body)
}

func TestSubmitEmptyID(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.Submit(context.Background(), &Submission{})
	require.ErrorIs(t, err, ErrEmptyRequestID)
}

func TestSubmitCancelled(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Submit(ctx, &Submission{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig
	require.Error(t, config.Validate())
	config.APIKey = "key"
	require.NoError(t, config.Validate())
	config.URL = "alpha.succinct.xyz"
	require.Error(t, config.Validate())
}
