package assetsvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bCtx "github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/domain"
	"github.com/x-xyz/launchpad/domain/asset"
)

func mintRequest() *asset.MintRequest {
	return &asset.MintRequest{
		Collection: domain.Address("0x18c7766a10df15df8c971f6e8c1d2bba7c7a410b"),
		Series:     "genesis",
		Recipient:  domain.Address("0xabc"),
	}
}

func Test_Mint(t *testing.T) {
	req := require.New(t)

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/mint", r.URL.Path)
		req.Equal("secret", r.Header.Get("x-api-key"))
		gotKey = r.Header.Get("idempotency-key")

		body := &asset.MintRequest{}
		req.NoError(json.NewDecoder(r.Body).Decode(body))
		req.Equal("genesis", body.Series)

		json.NewEncoder(w).Encode(asset.MintResult{AssetId: "genesis-17", StorageBytes: 512})
	}))
	defer srv.Close()

	c := NewClient(&ClientCfg{
		HttpClient: http.Client{},
		Endpoint:   srv.URL,
		Apikey:     "secret",
		Timeout:    10 * time.Second,
	})

	res, err := c.Mint(bCtx.Background(), mintRequest())
	req.NoError(err)
	req.Equal("genesis-17", res.AssetId)
	req.Equal(int64(512), res.StorageBytes)
	req.NotEmpty(gotKey)
}

func Test_MintRetriesWithSameIdempotencyKey(t *testing.T) {
	req := require.New(t)

	var seenKeys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKeys = append(seenKeys, r.Header.Get("idempotency-key"))
		if len(seenKeys) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(asset.MintResult{AssetId: "genesis-18", StorageBytes: 256})
	}))
	defer srv.Close()

	c := NewClient(&ClientCfg{
		HttpClient:  http.Client{},
		Endpoint:    srv.URL,
		Timeout:     10 * time.Second,
		RetryStart:  time.Millisecond,
		RetryLimit:  10 * time.Millisecond,
		MaxAttempts: 3,
	})

	res, err := c.Mint(bCtx.Background(), mintRequest())
	req.NoError(err)
	req.Equal("genesis-18", res.AssetId)
	req.Len(seenKeys, 3)
	req.Equal(seenKeys[0], seenKeys[1])
	req.Equal(seenKeys[0], seenKeys[2])
}

func Test_MintDoesNotRetryClientError(t *testing.T) {
	req := require.New(t)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(&ClientCfg{
		HttpClient:  http.Client{},
		Endpoint:    srv.URL,
		Timeout:     10 * time.Second,
		RetryStart:  time.Millisecond,
		RetryLimit:  10 * time.Millisecond,
		MaxAttempts: 3,
	})

	_, err := c.Mint(bCtx.Background(), mintRequest())
	req.Equal(ErrStatusCodeNotOk, err)
	req.Equal(1, calls)
}
