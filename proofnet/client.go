// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package proofnet submits proof requests to the proving network platform.
package proofnet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"
)

const (
	requestPath = "/request/new"
	// responses are tiny; anything bigger is an error page
	maxResponseSize = 1 << 20
)

var ErrEmptyRequestID = errors.New("proof network returned an empty request id")

// SubmissionError is returned when the platform rejects a request.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("proof request rejected with status %d (%s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

type Config struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api-key"`
	Timeout time.Duration `koanf:"timeout"`
}

var DefaultConfig = Config{
	URL:     "https://alpha.succinct.xyz/api",
	APIKey:  "",
	Timeout: time.Minute,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", DefaultConfig.URL, "base URL of the proving network API")
	f.String(prefix+".api-key", DefaultConfig.APIKey, "API key used to authenticate proof requests")
	f.Duration(prefix+".timeout", DefaultConfig.Timeout, "timeout of a proof request submission")
}

func (c *Config) Validate() error {
	if !(strings.HasPrefix(c.URL, "http://") || strings.HasPrefix(c.URL, "https://")) {
		return fmt.Errorf("proof network url must start with http:// or https://, got %q", c.URL)
	}
	if c.APIKey == "" {
		return errors.New("proof network api key must be set")
	}
	return nil
}

// Submission is one proof request as the platform expects it.
type Submission struct {
	ChainID    uint32         `json:"chainId"`
	To         common.Address `json:"to"`
	Data       hexutil.Bytes  `json:"data"`
	FunctionID common.Hash    `json:"functionId"`
	Input      hexutil.Bytes  `json:"input"`
}

type submissionResponse struct {
	RequestID string `json:"request_id"`
}

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(config *Config) *Client {
	return &Client{
		url:    strings.TrimSuffix(config.URL, "/"),
		apiKey: config.APIKey,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// Submit posts the request and returns the platform's request id.
func (c *Client) Submit(ctx context.Context, submission *Submission) (string, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+requestPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Trace("submitting proof request", "url", c.url+requestPath, "functionId", submission.FunctionID, "input", submission.Input)
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &SubmissionError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(resBody))}
	}

	var response submissionResponse
	if err := json.Unmarshal(resBody, &response); err != nil {
		return "", fmt.Errorf("decoding proof network response: %w", err)
	}
	if response.RequestID == "" {
		return "", ErrEmptyRequestID
	}
	return response.RequestID, nil
}
