package bitcore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"github.com/custodialabs/payment-service/internal/domain"
)

const (
	heightCacheKey = "height"
	feeCacheKey    = "fee"

	// estimatefee is quoted in BTC per kilobyte for a 2-block target.
	feeBlockTarget = "2"
)

// Client talks to a bitcore-style ledger indexer. The indexer is an
// unreliable remote dependency: every failure surfaces as
// *domain.ChainServiceError. Chain height and fee rate are cached briefly so
// a burst of submissions does not hammer the indexer.
type Client struct {
	cli         *resty.Client
	heightCache *expirable.LRU[string, int64]
	feeCache    *expirable.LRU[string, float64]
}

var _ domain.ChainClient = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &Client{
		cli:         cli,
		heightCache: expirable.NewLRU[string, int64](1, nil, 10*time.Second),
		feeCache:    expirable.NewLRU[string, float64](1, nil, 30*time.Second),
	}
}

type accountResponse struct {
	Address    string `json:"addrStr"`
	BalanceSat int64  `json:"balanceSat"`
}

func (c *Client) GetAccount(ctx context.Context, address string) (*domain.ChainAccount, error) {
	var result accountResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("address", address).
		Get("/addr/{address}")
	if err := checkResponse(resp, err, "get account"); err != nil {
		return nil, err
	}

	return &domain.ChainAccount{Address: result.Address, BalanceSat: result.BalanceSat}, nil
}

type utxoResponse struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	Satoshis     int64  `json:"satoshis"`
	Height       int64  `json:"height"`
	ScriptPubKey string `json:"scriptPubKey"`
}

func (c *Client) GetUtxos(ctx context.Context, address string) ([]domain.UTXO, error) {
	var result []utxoResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("address", address).
		Get("/addr/{address}/utxo")
	if err := checkResponse(resp, err, "get utxos"); err != nil {
		return nil, err
	}

	utxos := make([]domain.UTXO, 0, len(result))
	for _, u := range result {
		height := u.Height
		if height < 0 {
			// The indexer reports mempool outputs with a negative height.
			height = 0
		}
		utxos = append(utxos, domain.UTXO{
			TxID:         u.TxID,
			Vout:         u.Vout,
			ValueSat:     u.Satoshis,
			ScriptPubKey: u.ScriptPubKey,
			Height:       height,
		})
	}
	return utxos, nil
}

func (c *Client) GetFeeRate(ctx context.Context) (float64, error) {
	if rate, ok := c.feeCache.Get(feeCacheKey); ok {
		return rate, nil
	}

	var result map[string]float64
	resp, err := c.cli.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/utils/estimatefee")
	if err := checkResponse(resp, err, "estimate fee"); err != nil {
		return 0, err
	}

	feeBtcPerKb, ok := result[feeBlockTarget]
	if !ok || feeBtcPerKb < 0 {
		return 0, &domain.ChainServiceError{Op: "estimate fee", Err: errors.Errorf("no usable estimate in %v", result)}
	}

	satPerByte := feeBtcPerKb * 1e8 / 1024
	c.feeCache.Add(feeCacheKey, satPerByte)
	return satPerByte, nil
}

type syncResponse struct {
	BlockChainHeight int64 `json:"blockChainHeight"`
}

func (c *Client) GetChainHeight(ctx context.Context) (int64, error) {
	if height, ok := c.heightCache.Get(heightCacheKey); ok {
		return height, nil
	}

	var result syncResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/sync")
	if err := checkResponse(resp, err, "get chain height"); err != nil {
		return 0, err
	}

	c.heightCache.Add(heightCacheKey, result.BlockChainHeight)
	return result.BlockChainHeight, nil
}

type transactionResponse struct {
	TxID          string  `json:"txid"`
	Confirmations int64   `json:"confirmations"`
	Fees          float64 `json:"fees"`
	BlockHeight   int64   `json:"blockheight"`
}

func (c *Client) GetTransaction(ctx context.Context, hash string) (*domain.ChainTransaction, error) {
	var result transactionResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("hash", hash).
		Get("/tx/{hash}")
	if err := checkResponse(resp, err, "get transaction"); err != nil {
		return nil, err
	}

	return &domain.ChainTransaction{
		Hash:          result.TxID,
		Confirmations: result.Confirmations,
		FeeSat:        int64(result.Fees * 1e8),
		BlockHeight:   result.BlockHeight,
	}, nil
}

type broadcastRequest struct {
	RawTx string `json:"rawtx"`
}

type broadcastResponse struct {
	TxID string `json:"txid"`
}

func (c *Client) Broadcast(ctx context.Context, signedTxHex string) (string, error) {
	var result broadcastResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetBody(broadcastRequest{RawTx: signedTxHex}).
		SetResult(&result).
		Post("/tx/send")
	if err := checkResponse(resp, err, "broadcast"); err != nil {
		return "", err
	}

	if result.TxID == "" {
		return "", &domain.ChainServiceError{Op: "broadcast", Err: errors.New("indexer returned no txid")}
	}
	return result.TxID, nil
}

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		return &domain.ChainServiceError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &domain.ChainServiceError{
			Op:  op,
			Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	return nil
}
