package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// HTTPClient posts transfer instructions to the bank's HTTP endpoint
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *zap.Logger
}

func NewHTTPClient(endpoint, token string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		token:      token,
		logger:     logger.Named("gateway"),
	}
}

func (c *HTTPClient) Transfer(ctx context.Context, in Instruction) error {
	l := c.logger.With(zap.String("transaction_id", in.TransactionID))

	b, err := json.Marshal(in)
	if err != nil {
		return reject(in, "marshal", errors.Wrap(err, "Failed marshal"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return reject(in, "request", errors.Wrap(err, "Failed new request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		l.Warn("Gateway unreachable.", zap.Error(err))
		return reject(in, "unreachable", errors.Wrap(err, "Failed do request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reject(in, "read body", errors.Wrap(err, "Failed read all body"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		l.Warn("Gateway returned error status.", zap.Int("status_code", resp.StatusCode))
		return reject(in, resp.Status, nil)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		l.Warn("Gateway returned malformed body.", zap.Error(err))
		return reject(in, "malformed response", errors.Wrap(err, "Failed unmarshal"))
	}
	if out.Status != StatusSuccess {
		return reject(in, "status "+out.Status, nil)
	}

	l.Debug("Transfer accepted.")
	return nil
}
