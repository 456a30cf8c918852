package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// ErrUnavailable is returned while the parameter service is failing.
var ErrUnavailable = errors.New("parameter service unavailable")

const (
	maxResponseSize     = 1 << 20
	breakerFailures     = 3
	breakerOpenDuration = 30 * time.Second
)

// networkConfig is the subset of the network status document we read.
type networkConfig struct {
	TxFeeFixed           json.Number `json:"txFeeFixed"`
	TxFeePerByte         json.Number `json:"txFeePerByte"`
	UTxODepositPerByte   json.Number `json:"utxoDepositPerByte"`
	CollateralPercentage int         `json:"collateralPercentage"`
	MaxTxSize            int         `json:"maxTxSize"`
}

// HTTP fetches parameters from a network status endpoint. URL may contain
// a single %s that is replaced by the network name.
type HTTP struct {
	URL     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTP creates an HTTP provider with the given request timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		URL:    url,
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "params",
			Timeout: breakerOpenDuration,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Params.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Parameter service breaker changed state")
			},
		}),
	}
}

func (h *HTTP) endpoint(network types.Network) string {
	if strings.Contains(h.URL, "%s") {
		return fmt.Sprintf(h.URL, network)
	}
	return h.URL
}

// Fetch implements Provider.
func (h *HTTP) Fetch(ctx context.Context, network types.Network) (*Network, error) {
	res, err := h.breaker.Execute(func() (interface{}, error) {
		return h.fetch(ctx, network)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return res.(*Network), nil
}

func (h *HTTP) fetch(ctx context.Context, network types.Network) (*Network, error) {
	url := h.endpoint(network)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	var doc networkConfig
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	p, err := doc.toNetwork()
	if err != nil {
		return nil, err
	}
	log.Params.Debug().
		Str("network", network.String()).
		Str("coins_per_utxo_byte", p.CoinsPerUTxOByte.String()).
		Msg("Fetched network parameters")
	return p, nil
}

func (c networkConfig) toNetwork() (*Network, error) {
	fields := []struct {
		name string
		raw  json.Number
	}{
		{"utxoDepositPerByte", c.UTxODepositPerByte},
		{"txFeePerByte", c.TxFeePerByte},
		{"txFeeFixed", c.TxFeeFixed},
	}
	values := make([]*big.Int, len(fields))
	for i, f := range fields {
		n, ok := new(big.Int).SetString(f.raw.String(), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %s = %q", ErrInvalidParams, f.name, f.raw)
		}
		values[i] = n
	}

	p := &Network{
		CoinsPerUTxOByte:     values[0],
		MinFeeA:              values[1],
		MinFeeB:              values[2],
		MaxTxSize:            c.MaxTxSize,
		CollateralPercentage: c.CollateralPercentage,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
