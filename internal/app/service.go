// Package service provides the card service behind the HTTP API and the CLI.
//
// A card request validates the username, picks a credential, fetches stats
// from GitHub, derives the activity summary and renders the SVG template.
// The request either yields a complete document or an error.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/okian/statuscard/internal/adapters/github"
	"github.com/okian/statuscard/internal/adapters/svgcard"
	"github.com/okian/statuscard/internal/config"
	"github.com/okian/statuscard/internal/domain/activity"
	"github.com/okian/statuscard/internal/domain/model"
	"github.com/okian/statuscard/pkg/logger"
	"github.com/okian/statuscard/pkg/metrics"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidateUsername checks name against the GitHub login alphabet.
func ValidateUsername(name string) error {
	const op = "service.validate_username"
	if name == "" {
		return model.WrapKind(op, model.ErrInvalidUsername, errors.New("username is empty"))
	}
	if !usernamePattern.MatchString(name) {
		return model.WrapKind(op, model.ErrInvalidUsername,
			fmt.Errorf("%q must contain only letters, digits and hyphens", name))
	}
	return nil
}

// SourceFactory builds the stats source for a credential.
type SourceFactory func(credential string, opts ...github.Option) (github.Source, error)

// Service renders status cards.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	newSource SourceFactory
	renderer  *svgcard.Renderer
	template  svgcard.Template
	hasTpl    bool
	now       func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSourceFactory replaces github.NewSource.
func WithSourceFactory(f SourceFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.newSource = f
		}
	}
}

// WithTemplate uses tpl instead of loading one from the configured paths.
func WithTemplate(tpl svgcard.Template) Option {
	return func(s *Service) {
		s.template = tpl
		s.hasTpl = true
	}
}

// WithRenderer sets the card renderer.
func WithRenderer(r *svgcard.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock replaces time.Now for derivation and fetch windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:       config.New(),
		newSource: github.NewSource,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.renderer == nil {
		s.renderer = svgcard.NewRenderer(svgcard.WithStrictRegions(s.cfg.StrictRegions))
	}
	return s
}

// Start loads the template. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if !s.hasTpl {
		tpl, err := svgcard.LoadTemplate(s.cfg.TemplatePaths)
		if err != nil {
			s.logger.Error(ctx, "failed to load card template", logger.Error(err))
			return err
		}
		s.template = tpl
		s.hasTpl = true
	}

	s.started = true
	s.logger.Info(ctx, "card service started",
		logger.String("template", s.template.Source()),
		logger.String("username", s.cfg.Username),
		logger.Bool("ownerToken", s.cfg.OwnerToken != ""),
		logger.Bool("fallbackToken", s.cfg.FallbackToken != ""),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "card service stopped")
}

// ResolveUsername trims raw, substitutes the configured default when it is
// empty and validates the result.
func (s *Service) ResolveUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = s.cfg.Username
	}
	if err := ValidateUsername(name); err != nil {
		return "", err
	}
	return name, nil
}

// Card renders the status card of username.
func (s *Service) Card(ctx context.Context, username string) ([]byte, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	s.mu.RLock()
	tpl := s.template
	s.mu.RUnlock()

	log := s.logger.With(logger.String("username", username))

	stats, err := s.fetch(ctx, log, username)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := activity.Derive(stats, s.now())
	out, err := s.renderer.Render(tpl, stats, summary.Role, summary.Streak, summary.MonthTotal)
	if err != nil {
		log.Error(ctx, "render failed", logger.Error(err))
		return nil, err
	}
	metrics.RecordRenderLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	metrics.RecordCardRendered(summary.Role.Key)

	log.Debug(ctx, "card rendered",
		logger.String("role", summary.Role.Key),
		logger.Float64("hours", summary.Hours),
		logger.Int("streak", summary.Streak.Days),
		logger.Int("month", summary.MonthTotal),
		logger.Int("bytes", len(out)),
	)
	return []byte(out), nil
}

func (s *Service) fetch(ctx context.Context, log logger.Logger, username string) (model.Stats, error) {
	src, err := s.newSource(s.cfg.TokenFor(username), s.sourceOptions()...)
	if err != nil {
		log.Error(ctx, "failed to build stats source", logger.Error(err))
		return model.Stats{}, err
	}

	start := time.Now()
	stats, err := src.Fetch(ctx, username)
	elapsed := time.Since(start)
	metrics.RecordUpstreamLatency(src.Mode(), float64(elapsed.Nanoseconds())/1e6)
	if err != nil {
		kind := github.Kind(err)
		metrics.RecordUpstreamFailure(src.Mode(), kind)
		log.Warn(ctx, "stats fetch failed",
			logger.String("mode", src.Mode()),
			logger.String("kind", kind),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return model.Stats{}, err
	}

	log.Debug(ctx, "stats fetched",
		logger.String("mode", src.Mode()),
		logger.Duration("elapsed", elapsed),
		logger.Int("total", stats.TotalCommits),
	)
	return stats, nil
}

func (s *Service) sourceOptions() []github.Option {
	return []github.Option{
		github.WithGraphQLURL(s.cfg.GraphQLURL),
		github.WithRESTURL(s.cfg.RESTURL),
		github.WithTimeout(s.cfg.FetchTimeout),
		github.WithRepoLimit(s.cfg.RepoLimit),
		github.WithLanguageWindow(time.Duration(s.cfg.LanguageWindowDays) * 24 * time.Hour),
		github.WithClock(s.now),
	}
}

// GetStats returns service state for the startup banner and monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started":       s.started,
		"username":      s.cfg.Username,
		"ownerToken":    s.cfg.OwnerToken != "",
		"fallbackToken": s.cfg.FallbackToken != "",
		"template":      s.template.Source(),
		"cacheMaxAge":   s.cfg.CacheMaxAge,
	}
}
