package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sundayezeilo/shortlink/codegen"
	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/linkcache"
	"github.com/sundayezeilo/shortlink/internal/urlcheck"
)

const (
	DefaultCodeMaxRetries = 5

	// asyncOpTimeout bounds background cache and counter writes spawned
	// from the resolve path.
	asyncOpTimeout = 5 * time.Second
)

// DisabledError carries the reason a link was disabled. It is wrapped in an
// errx error of kind Disabled.
type DisabledError struct {
	Reason string
}

func (e *DisabledError) Error() string {
	if e.Reason == "" {
		return "link is disabled"
	}
	return fmt.Sprintf("link is disabled: %s", e.Reason)
}

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	LongURL    string
	CustomCode string // Optional: if empty, a code will be generated
	OwnerID    *int64
}

// Service defines the business logic operations for URL shortening.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	// Get returns a link in any state. Admin surface.
	Get(ctx context.Context, code string) (Link, error)
	// Preview returns an active link without counting a click. Disabled
	// links yield a Disabled error, missing ones NotFound.
	Preview(ctx context.Context, code string) (Link, error)
	// Resolve returns the destination URL for an active code and bumps
	// its click counter off the request path.
	Resolve(ctx context.Context, code string) (string, error)
	Disable(ctx context.Context, code, reason string) (Link, error)
	Enable(ctx context.Context, code string) (Link, error)
	Delete(ctx context.Context, code string) error
	// WarmCache primes the redirect cache with the most-clicked active
	// links and reports how many entries were written.
	WarmCache(ctx context.Context, limit int) (int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Link, error)
}

// service implements the Service interface.
type service struct {
	repo           Repository
	cache          linkcache.Cache
	codeGenerator  codegen.Generator
	logger         *slog.Logger
	codeLength     int
	codeMaxRetries int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator  codegen.Generator
	Logger         *slog.Logger
	CodeLength     int
	CodeMaxRetries int // attempts when generating a unique code (default: 5)
}

// NewService creates a new service instance.
func NewService(repo Repository, cache linkcache.Cache, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	codeGen := config.CodeGenerator
	if codeGen == nil {
		codeGen = codegen.NewRandom()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	codeLength := config.CodeLength
	if codeLength < 1 || codeLength > codegen.MaxCodeLength {
		codeLength = codegen.DefaultCodeLength
	}

	retries := config.CodeMaxRetries
	if retries <= 0 {
		retries = DefaultCodeMaxRetries
	}

	return &service{
		repo:           repo,
		cache:          cache,
		codeGenerator:  codeGen,
		logger:         logger,
		codeLength:     codeLength,
		codeMaxRetries: retries,
	}
}

// Create creates a new short link with optional custom code. The redirect
// cache is primed synchronously so the code resolves immediately, even if a
// negative entry for it is still live.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	if err := urlcheck.Validate(req.LongURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	// Custom code path: validate and create once
	if req.CustomCode != "" {
		if err := codegen.ValidateCustomCode(req.CustomCode); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}

		created, err := s.repo.Create(ctx, Link{
			LongURL:   req.LongURL,
			ShortCode: req.CustomCode,
			IsCustom:  true,
			OwnerID:   req.OwnerID,
		})
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}

		s.primeCache(ctx, created)
		return created, nil
	}

	// Generated code path: retry on conflicts
	for range s.codeMaxRetries {
		code, err := s.codeGenerator.Generate(s.codeLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}

		created, err := s.repo.Create(ctx, Link{
			LongURL:   req.LongURL,
			ShortCode: code,
			OwnerID:   req.OwnerID,
		})
		if err == nil {
			s.primeCache(ctx, created)
			return created, nil
		}

		// Retry on conflict, fail on other errors
		if errx.KindOf(err) != errx.Conflict {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
	}

	return Link{}, errx.E(op, errx.Unavailable,
		errors.New("could not generate unique short code after retries"))
}

func (s *service) Get(ctx context.Context, code string) (Link, error) {
	const op = "shortener.service.Get"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

func (s *service) Preview(ctx context.Context, code string) (Link, error) {
	const op = "shortener.service.Preview"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	if link.Disabled {
		return Link{}, errx.E(op, errx.Disabled, disabledErr(link))
	}
	return link, nil
}

// Resolve looks up the destination for code, cache first. Cache misses fall
// through to the database; absent codes are negative-cached so repeated
// probes stay off the database until the entry expires.
func (s *service) Resolve(ctx context.Context, code string) (string, error) {
	const op = "shortener.service.Resolve"

	if code == "" {
		return "", errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	result, cached, err := s.cache.Get(ctx, code)
	if err != nil {
		// A broken cache degrades to database lookups, it does not break
		// redirects.
		s.logger.Warn("redirect cache lookup failed", "short_code", code, "error", err)
		result = linkcache.Miss
	}

	switch result {
	case linkcache.Hit:
		s.bumpClicks(code)
		return cached.LongURL, nil

	case linkcache.Negative:
		return "", errx.E(op, errx.NotFound, fmt.Errorf("link %q not found", code))
	}

	link, err := s.repo.GetByShortCode(ctx, code)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			// Written before returning so a concurrent Create of this code
			// cannot have its freshly primed positive entry overwritten by
			// a straggling negative write.
			s.putNegative(ctx, code)
		}
		return "", errx.E(op, errx.KindOf(err), err)
	}

	if link.Disabled {
		// Disabled links are deliberately not negative-cached: re-enabling
		// must take effect immediately.
		return "", errx.E(op, errx.Disabled, disabledErr(link))
	}

	s.primeCache(ctx, link)
	s.bumpClicks(code)

	return link.LongURL, nil
}

func (s *service) Disable(ctx context.Context, code, reason string) (Link, error) {
	const op = "shortener.service.Disable"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}
	if reason == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("reason cannot be empty"))
	}

	link, err := s.repo.Disable(ctx, code, reason)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	// Drop the cached resolution so stale redirects stop at once.
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.logger.Error("failed to invalidate cache for disabled link",
			"short_code", code, "error", err)
	}

	return link, nil
}

func (s *service) Enable(ctx context.Context, code string) (Link, error) {
	const op = "shortener.service.Enable"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	link, err := s.repo.Enable(ctx, code)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	s.primeCache(ctx, link)

	return link, nil
}

func (s *service) Delete(ctx context.Context, code string) error {
	const op = "shortener.service.Delete"

	if code == "" {
		return errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}

	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.logger.Error("failed to invalidate cache for deleted link",
			"short_code", code, "error", err)
	}

	return nil
}

func (s *service) WarmCache(ctx context.Context, limit int) (int, error) {
	const op = "shortener.service.WarmCache"

	if limit <= 0 {
		return 0, errx.E(op, errx.Invalid, errors.New("limit must be positive"))
	}

	links, err := s.repo.TopByClicks(ctx, limit)
	if err != nil {
		return 0, errx.E(op, errx.KindOf(err), err)
	}

	warmed := 0
	for _, link := range links {
		if err := s.cache.PutPositive(ctx, link.ShortCode, resolution(link)); err != nil {
			s.logger.Error("failed to warm cache entry",
				"short_code", link.ShortCode, "error", err)
			continue
		}
		warmed++
	}

	s.logger.Info("redirect cache warmed", "entries", warmed, "limit", limit)

	return warmed, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID int64) ([]Link, error) {
	const op = "shortener.service.ListByOwner"

	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return links, nil
}

func resolution(link Link) linkcache.Resolution {
	return linkcache.Resolution{LinkID: link.ID, LongURL: link.LongURL}
}

func disabledErr(link Link) error {
	reason := ""
	if link.DisableReason != nil {
		reason = *link.DisableReason
	}
	return &DisabledError{Reason: reason}
}

// primeCache writes a positive entry for link. Failures are logged, never
// surfaced: the caller already has an authoritative answer.
func (s *service) primeCache(ctx context.Context, link Link) {
	if err := s.cache.PutPositive(ctx, link.ShortCode, resolution(link)); err != nil {
		s.logger.Error("failed to prime redirect cache",
			"short_code", link.ShortCode, "error", err)
	}
}

// putNegative remembers a missing code. Failures are logged, never
// surfaced: the caller already has an authoritative answer.
func (s *service) putNegative(ctx context.Context, code string) {
	if err := s.cache.PutNegative(ctx, code); err != nil {
		s.logger.Error("failed to negative-cache missing code",
			"short_code", code, "error", err)
	}
}

// bumpClicks increments the aggregate counter without blocking the redirect.
// The detached context keeps the write alive after the response is sent.
func (s *service) bumpClicks(code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncOpTimeout)
		defer cancel()

		if err := s.repo.IncrementClicks(ctx, code); err != nil {
			s.logger.Error("failed to increment click counter",
				"short_code", code, "error", err)
		}
	}()
}
