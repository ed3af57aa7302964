package validator

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pricefeed_api/config"
	"pricefeed_api/metrics"
)

const (
	validMessage     = "the token is valid"
	authHeader       = "AUTHORIZATION"
	maxReplyBodySize = 1 << 20

	ResultValid          = "valid"
	ResultInvalid        = "invalid"
	ResultTransportError = "transport_error"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request carries what the caller presented plus the identity of this shop.
type Request struct {
	Token         string
	Authorization string
	ShopDomain    string
}

type reply struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

// Client checks feed tokens against the remote verification service.
type Client struct {
	endpoint string
	version  string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger
}

func NewClient(cfg config.ValidatorConfig, version string, logger *zap.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.TransportTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TransportTimeout,
		ResponseHeaderTimeout: cfg.TransportTimeout,
	}

	c := &Client{
		endpoint: cfg.URL,
		version:  version,
		timeout:  cfg.Timeout,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.TransportTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logger.Named("validator"),
	}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}
	return c
}

// Validate returns nil when the token is accepted, a *RejectedError when the service
// refuses it and a *TransportError when the service cannot be asked.
func (c *Client) Validate(ctx context.Context, r Request) error {
	err := c.validate(ctx, r)

	result := ResultValid
	fields := []zap.Field{
		zap.Int("token_length", len(r.Token)),
		zap.String("shop_domain", r.ShopDomain),
	}
	switch err.(type) {
	case nil:
		c.log.Debug("token accepted", fields...)
	case *RejectedError:
		result = ResultInvalid
		c.log.Info("token rejected", append(fields, zap.Error(err))...)
	default:
		result = ResultTransportError
		c.log.Warn("token validation failed", append(fields, zap.Error(err))...)
	}
	metrics.RecordValidation(result)
	return err
}

func (c *Client) validate(ctx context.Context, r Request) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	form := url.Values{}
	form.Set("token", r.Token)
	form.Set("shop_domain", r.ShopDomain)
	form.Set("version", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(authHeader, r.Authorization)

	resp, err := c.client.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return &TransportError{Err: fmt.Errorf("request was cancelled: %w", ctx.Err())}
		default:
			return &TransportError{Err: fmt.Errorf("failed to execute request: %w", err)}
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBodySize))
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// the status code is not consulted; only the reply content decides
	var rep reply
	if err := json.Unmarshal(body, &rep); err != nil {
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if rep.Success && rep.Message == validMessage {
		return nil
	}
	return &RejectedError{StatusCode: resp.StatusCode, Message: rep.Error, Body: string(body)}
}
