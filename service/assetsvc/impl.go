package assetsvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/launchpad/base/backoff"
	bCtx "github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/domain/asset"
)

const (
	apikeyHeader         = "x-api-key"
	idempotencyKeyHeader = "idempotency-key"
)

type client struct {
	client      http.Client
	endpoint    string
	apikey      string
	timeout     time.Duration
	retryStart  time.Duration
	retryLimit  time.Duration
	maxAttempts int
}

// NewClient builds an asset.Minter backed by the external asset
// service's HTTP API.
func NewClient(cfg *ClientCfg) asset.Minter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &client{
		client:      cfg.HttpClient,
		endpoint:    cfg.Endpoint,
		apikey:      cfg.Apikey,
		timeout:     cfg.Timeout,
		retryStart:  cfg.RetryStart,
		retryLimit:  cfg.RetryLimit,
		maxAttempts: maxAttempts,
	}
}

func (c *client) Mint(ctx bCtx.Ctx, req *asset.MintRequest) (*asset.MintResult, error) {
	url := fmt.Sprintf("%s/mint", c.endpoint)

	body, err := json.Marshal(req)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("json.Marshal failed")
		return nil, err
	}

	// one key for all attempts so the service dedupes our retries
	idempotencyKey := uuid.NewString()

	bo := backoff.NewExponential(c.retryStart, c.retryLimit)
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := bo.Backoff(ctx); err != nil {
				return nil, err
			}
		}

		res, retryable, err := c.post(ctx, url, idempotencyKey, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		ctx.WithFields(log.Fields{
			"err":            err,
			"attempt":        attempt,
			"idempotencyKey": idempotencyKey,
		}).Warn("mint attempt failed")
	}
	return nil, lastErr
}

func (c *client) post(ctx bCtx.Ctx, url, idempotencyKey string, body []byte) (*asset.MintResult, bool, error) {
	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyKeyHeader, idempotencyKey)
	if c.apikey != "" {
		req.Header.Set(apikeyHeader, c.apikey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("client.Do failed")
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		// client errors will not heal on retry
		return nil, resp.StatusCode >= http.StatusInternalServerError, ErrStatusCodeNotOk
	}

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("failed to read body")
		return nil, true, err
	}

	res := &asset.MintResult{}
	if err := json.Unmarshal(raw, res); err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("json.Unmarshal failed")
		return nil, false, err
	}
	return res, false, nil
}
