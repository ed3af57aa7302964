package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pricefeed_api/internal/feed/catalog"
	"pricefeed_api/internal/feed/normalize"
	"pricefeed_api/internal/feed/query"
	"pricefeed_api/internal/feed/updater"
	"pricefeed_api/internal/feed/validator"
	"pricefeed_api/metrics"
)

type TokenValidator interface {
	Validate(ctx context.Context, r validator.Request) error
}

type ProductResolver interface {
	Resolve(ctx context.Context, p query.Params) (*query.Result, error)
}

type RecordNormalizer interface {
	Normalize(ctx context.Context, p *catalog.Product, isVariant bool) *normalize.Record
}

type Config struct {
	ShopDomain   string
	Version      string
	QueryTimeout time.Duration
}

// Request is a parsed feed request.
type Request struct {
	Token         string
	Authorization string
	AutoUpdate    bool
	Query         query.Params
}

// Response is the status and JSON body to answer with.
type Response struct {
	Status int
	Body   any
}

type FeedPayload struct {
	Products []*normalize.Record `json:"products"`
	Count    *int                `json:"count,omitempty"`
	MaxPages *int                `json:"max_pages,omitempty"`
	Version  string              `json:"Version"`
}

type ErrorPayload struct {
	Response *string `json:"Response,omitempty"`
	Error    *string `json:"Error"`
	Version  string  `json:"Version"`
}

type UpdatedPayload struct {
	Updated bool   `json:"Updated"`
	Version string `json:"Version"`
}

// Service assembles feed responses: token check, product selection, normalization.
type Service struct {
	cfg        Config
	validator  TokenValidator
	resolver   ProductResolver
	normalizer RecordNormalizer
	updater    updater.Updater
	log        *zap.Logger
}

func New(cfg Config, v TokenValidator, r ProductResolver, n RecordNormalizer, u updater.Updater, logger *zap.Logger) *Service {
	if u == nil {
		u = updater.Noop{}
	}
	return &Service{
		cfg:        cfg,
		validator:  v,
		resolver:   r,
		normalizer: n,
		updater:    u,
		log:        logger.Named("service"),
	}
}

func (s *Service) Version() string {
	return s.cfg.Version
}

// Products answers a feed request. Every response carries the version marker.
func (s *Service) Products(ctx context.Context, req Request) Response {
	if req.AutoUpdate {
		updated, err := s.updater.Update(ctx)
		if err == nil && updated {
			return Response{Status: http.StatusOK, Body: UpdatedPayload{Updated: true, Version: s.cfg.Version}}
		}
	}

	err := s.validator.Validate(ctx, validator.Request{
		Token:         req.Token,
		Authorization: req.Authorization,
		ShopDomain:    s.cfg.ShopDomain,
	})
	if err != nil {
		return s.validationFailure(err)
	}

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	res, err := s.resolver.Resolve(ctx, req.Query)
	if err != nil {
		s.log.Error("failed to resolve products", zap.Error(err))
		return s.errorResponse(http.StatusInternalServerError, nil, err.Error())
	}

	payload := FeedPayload{
		Products: make([]*normalize.Record, 0, len(res.Items)),
		Version:  s.cfg.Version,
	}
	for _, item := range res.Items {
		payload.Products = append(payload.Products, s.normalizer.Normalize(ctx, item.Product, item.IsVariant))
	}
	if res.Paginated() {
		count, maxPages := res.Count, res.MaxPages
		payload.Count = &count
		payload.MaxPages = &maxPages
	}

	metrics.RecordProducts(string(res.Mode), len(payload.Products))
	return Response{Status: http.StatusOK, Body: payload}
}

func (s *Service) validationFailure(err error) Response {
	var rejected *validator.RejectedError
	if errors.As(err, &rejected) {
		body := rejected.Body
		return Response{
			Status: http.StatusUnauthorized,
			Body:   ErrorPayload{Response: &body, Error: rejected.Message, Version: s.cfg.Version},
		}
	}
	empty := ""
	return s.errorResponse(http.StatusInternalServerError, &empty, err.Error())
}

func (s *Service) errorResponse(status int, response *string, detail string) Response {
	return Response{
		Status: status,
		Body:   ErrorPayload{Response: response, Error: &detail, Version: s.cfg.Version},
	}
}
