// Package github fetches card statistics from the GitHub APIs.
//
// Two sources implement Source: GraphQLSource needs a credential and returns
// the full data set; RESTSource works anonymously and approximates the fields
// the REST API cannot provide. NewSource picks one from the credential.
package github

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
)

// Default source configuration constants.
const (
	defaultGraphQLURL     = "https://api.github.com/graphql"
	defaultRESTURL        = "https://api.github.com/"
	defaultTimeout        = 8 * time.Second
	defaultRepoLimit      = 10
	defaultLanguageWindow = 30 * 24 * time.Hour
	languagesPerRepo      = 10
	userAgent             = "statuscard/1.0"
)

// Source fetches the stats of one user.
type Source interface {
	// Mode reports which upstream the source talks to.
	Mode() string
	// Fetch retrieves stats for username, honoring ctx for cancellation.
	Fetch(ctx context.Context, username string) (model.Stats, error)
}

type settings struct {
	graphqlURL     string
	restURL        string
	httpClient     *http.Client
	timeout        time.Duration
	repoLimit      int
	languageWindow time.Duration
	now            func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{
		graphqlURL:     defaultGraphQLURL,
		restURL:        defaultRESTURL,
		httpClient:     &http.Client{},
		timeout:        defaultTimeout,
		repoLimit:      defaultRepoLimit,
		languageWindow: defaultLanguageWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a source.
type Option func(*settings)

// WithGraphQLURL overrides the GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.graphqlURL = u
		}
	}
}

// WithRESTURL overrides the REST API base URL.
func WithRESTURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.restURL = u
		}
	}
}

// WithHTTPClient sets the client whose transport carries upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithTimeout bounds each Fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRepoLimit sets how many recently pushed repositories are inspected.
func WithRepoLimit(n int) Option {
	return func(s *settings) {
		if n > 0 && n <= 100 {
			s.repoLimit = n
		}
	}
}

// WithLanguageWindow sets the look-back window for the recent language.
func WithLanguageWindow(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.languageWindow = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource returns a GraphQLSource when credential is set and a RESTSource
// otherwise.
func NewSource(credential string, opts ...Option) (Source, error) {
	if credential != "" {
		return NewGraphQLSource(credential, opts...), nil
	}
	return NewRESTSource(opts...)
}
