package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/miroapi/internal/auth/jwt"
	"github.com/kbukum/miroapi/internal/auth/password"
	"github.com/kbukum/miroapi/internal/errors"
	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/observability"
	"github.com/kbukum/miroapi/internal/resilience"
	"github.com/kbukum/miroapi/internal/tokencache"
	"github.com/kbukum/miroapi/internal/users"
	"github.com/kbukum/miroapi/internal/validation"
)

// Service runs the authentication flows. It is safe for concurrent use.
type Service struct {
	cfg     Config
	users   users.Store
	tokens  tokencache.Cache
	hasher  password.Hasher
	codec   *jwt.Codec
	storeBH *resilience.Bulkhead
	cacheBH *resilience.Bulkhead
	metrics *observability.Metrics
	log     *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now     func() time.Time
	hasher  password.Hasher
	metrics *observability.Metrics
}

// WithClock replaces time.Now for token issuing and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithHasher overrides the hasher built from Config.Password.
func WithHasher(h password.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

// WithMetrics sets the instruments outcomes are counted on.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewService validates cfg and wires the service.
func NewService(cfg Config, store users.Store, cache tokencache.Cache, log *logger.Logger, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var codecOpts []jwt.Option
	if o.now != nil {
		codecOpts = append(codecOpts, jwt.WithClock(o.now))
	}
	codec, err := jwt.NewCodec(cfg.JWT, codecOpts...)
	if err != nil {
		return nil, err
	}
	if o.hasher == nil {
		o.hasher = password.NewHasher(cfg.Password)
	}
	if o.metrics == nil {
		o.metrics = observability.NewNopMetrics()
	}

	log = log.WithComponent("auth")
	onReject := func(name string, err error) {
		log.Warn("bulkhead rejected call", logger.Fields("bulkhead", name, "error", err.Error()))
	}

	return &Service{
		cfg:    cfg,
		users:  store,
		tokens: cache,
		hasher: o.hasher,
		codec:  codec,
		storeBH: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name: "credential-store", MaxConcurrent: cfg.MaxConcurrentStore, MaxWait: cfg.MaxWait, OnReject: onReject,
		}),
		cacheBH: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name: "token-cache", MaxConcurrent: cfg.MaxConcurrentCache, MaxWait: cfg.MaxWait, OnReject: onReject,
		}),
		metrics: o.metrics,
		log:     log,
	}, nil
}

// Register validates in, hashes the password and stores a new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *users.User, err error) {
	ctx, done := s.observe(ctx, "register")
	defer func() { done(err) }()

	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if stderrors.Is(err, password.ErrTooShort) || stderrors.Is(err, password.ErrTooLong) {
			return nil, errors.Validation(strings.TrimPrefix(err.Error(), "password: ")).
				WithDetail("fields", []validation.FieldError{{Field: "password", Message: err.Error()}})
		}
		return nil, s.internal(ctx, "register", "hash password", err)
	}

	u := &users.User{
		Username:  in.Username,
		Password:  hash,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsActive:  true,
	}
	err = s.store(ctx, func(ctx context.Context) error { return s.users.Create(ctx, u) })
	switch {
	case err == nil:
	case stderrors.Is(err, users.ErrDuplicateUser):
		return nil, errors.AlreadyExists("user").WithCause(err)
	default:
		return nil, s.internal(ctx, "register", "create user", err)
	}

	s.log.WithContext(ctx).Info("user registered", logger.Fields(
		logger.FieldUsername, u.Username, logger.FieldUserID, u.ID.String(),
	))
	return u, nil
}

// Login checks the credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (_ *TokenPair, err error) {
	ctx, done := s.observe(ctx, "login")
	defer func() { done(err) }()

	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	u, err := withStore(ctx, s, func(ctx context.Context) (*users.User, error) {
		return s.users.FindByUsername(ctx, in.Username)
	})
	switch {
	case err == nil:
	case stderrors.Is(err, users.ErrNotFound):
		// Equalize timing with the wrong-password path.
		_ = s.hasher.Verify(in.Password, s.dummy())
		return nil, errors.Unauthorized(errors.MsgBadCredentials)
	default:
		return nil, s.internal(ctx, "login", "find user", err)
	}

	if err := s.hasher.Verify(in.Password, u.Password); err != nil {
		if stderrors.Is(err, password.ErrMalformedHash) {
			return nil, s.internal(ctx, "login", "verify password", err)
		}
		return nil, errors.Unauthorized(errors.MsgBadCredentials)
	}

	pair, err := s.issue(ctx, u.Username, u.ID)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("user logged in", logger.Fields(
		logger.FieldUsername, u.Username, logger.FieldUserID, u.ID.String(),
	))
	return pair, nil
}

// Authenticate resolves a bearer token to the identity it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (_ Identity, err error) {
	ctx, done := s.observe(ctx, "authenticate")
	defer func() { done(err) }()

	id, err := s.decode(token, jwt.KindAccess)
	if err != nil {
		return Identity{}, err
	}
	if s.cfg.CacheCheckEnabled() {
		if err := s.matchCached(ctx, "authenticate", tokencache.Access, id.ID, token); err != nil {
			return Identity{}, err
		}
	}
	return id, nil
}

// Refresh exchanges a cached refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	ctx, done := s.observe(ctx, "refresh")
	defer func() { done(err) }()

	id, err := s.decode(refreshToken, jwt.KindRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.matchCached(ctx, "refresh", tokencache.Refresh, id.ID, refreshToken); err != nil {
		return nil, err
	}
	return s.issue(ctx, id.Username, id.ID)
}

// Logout revokes both cached tokens of the caller.
func (s *Service) Logout(ctx context.Context, id Identity) (err error) {
	ctx, done := s.observe(ctx, "logout")
	defer func() { done(err) }()

	if err := s.cache(ctx, func(ctx context.Context) error { return s.tokens.Delete(ctx, id.ID) }); err != nil {
		return s.internal(ctx, "logout", "delete tokens", err)
	}
	s.log.WithContext(ctx).Info("user logged out", logger.Fields(logger.FieldUserID, id.ID.String()))
	return nil
}

// Codec exposes the token codec.
func (s *Service) Codec() *jwt.Codec {
	return s.codec
}

// issue mints both tokens and caches them. No token is returned unless
// both cache writes succeed.
func (s *Service) issue(ctx context.Context, username string, userID uuid.UUID) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(username, userID.String())
	if err != nil {
		return nil, s.internal(ctx, "issue", "sign access token", err)
	}
	refresh, err := s.codec.IssueRefresh(username, userID.String())
	if err != nil {
		return nil, s.internal(ctx, "issue", "sign refresh token", err)
	}

	err = s.cache(ctx, func(ctx context.Context) error {
		return s.tokens.Set(ctx, tokencache.Access, userID, access.Value, access.TTL)
	})
	if err != nil {
		return nil, s.internal(ctx, "issue", "cache access token", err)
	}
	err = s.cache(ctx, func(ctx context.Context) error {
		return s.tokens.Set(ctx, tokencache.Refresh, userID, refresh.Value, refresh.TTL)
	})
	if err != nil {
		rbErr := s.cache(context.WithoutCancel(ctx), func(ctx context.Context) error {
			return s.tokens.Delete(ctx, userID, tokencache.Access)
		})
		if rbErr != nil {
			s.log.WithContext(ctx).Warn("failed to roll back access token", logger.Fields(
				logger.FieldUserID, userID.String(), logger.FieldError, rbErr.Error(),
			))
		}
		return nil, s.internal(ctx, "issue", "cache refresh token", err)
	}

	return &TokenPair{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(access.TTL / time.Second),
	}, nil
}

func (s *Service) decode(token string, kind jwt.Kind) (Identity, error) {
	claims, err := s.codec.Decode(token, kind)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, errors.TokenExpired()
		}
		return Identity{}, errors.InvalidToken()
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, errors.InvalidToken()
	}
	return Identity{Username: claims.Username(), ID: id}, nil
}

func (s *Service) matchCached(ctx context.Context, op string, kind tokencache.Kind, userID uuid.UUID, token string) error {
	cached, err := withCache(ctx, s, func(ctx context.Context) (string, error) {
		return s.tokens.Get(ctx, kind, userID)
	})
	switch {
	case err == nil:
	case stderrors.Is(err, tokencache.ErrMiss):
		return errors.TokenRevoked()
	default:
		return s.internal(ctx, op, "read "+string(kind), err)
	}
	if cached != token {
		return errors.TokenRevoked()
	}
	return nil
}

// store runs fn through the store bulkhead under the store timeout.
func (s *Service) store(ctx context.Context, fn func(context.Context) error) error {
	_, err := withStore(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// cache runs fn through the cache bulkhead under the cache timeout.
func (s *Service) cache(ctx context.Context, fn func(context.Context) error) error {
	_, err := withCache(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func withStore[T any](ctx context.Context, s *Service, fn func(context.Context) (T, error)) (T, error) {
	return resilience.ExecuteWithResult(ctx, s.storeBH, func() (T, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()
		return fn(ctx)
	})
}

func withCache[T any](ctx context.Context, s *Service, fn func(context.Context) (T, error)) (T, error) {
	return resilience.ExecuteWithResult(ctx, s.cacheBH, func() (T, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.CacheTimeout)
		defer cancel()
		return fn(ctx)
	})
}

// internal logs err and hides it behind a generic 500. A saturated
// bulkhead becomes a retryable 503 instead, and a caller that went away is
// only logged.
func (s *Service) internal(ctx context.Context, op, step string, err error) *errors.AppError {
	if stderrors.Is(err, context.Canceled) {
		s.log.WithContext(ctx).Warn("auth operation canceled", logger.Fields(
			logger.FieldOperation, op, "step", step, logger.FieldError, err.Error(),
		))
		return errors.Canceled(err)
	}
	if resilience.IsRejection(err) {
		s.log.WithContext(ctx).Warn("auth dependency saturated", logger.Fields(
			logger.FieldOperation, op, "step", step, logger.FieldError, err.Error(),
		))
		return errors.ServiceUnavailable("authentication service").WithCause(err)
	}
	s.log.WithContext(ctx).Error("auth operation failed", logger.Fields(
		logger.FieldOperation, op, "step", step, logger.FieldError, err.Error(),
	))
	return errors.Internal(fmt.Errorf("%s: %w", step, err))
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// observe opens a span for op and returns a func that ends it and counts
// the outcome.
func (s *Service) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "auth."+op)
	span.SetAttributes(attribute.String(observability.AttrOperation, op))
	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			if appErr, ok := errors.AsAppError(err); ok {
				outcome = strings.ToLower(string(appErr.Code))
			}
		}
		span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
		if err != nil && outcome == strings.ToLower(string(errors.ErrCodeInternal)) {
			observability.EndSpan(span, err)
		} else {
			span.End()
		}
		s.metrics.RecordOperation(ctx, op, outcome, time.Since(start))
	}
}
