package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/okian/statuscard/internal/domain/model"
)

// RESTSource fetches stats anonymously from the REST API. The REST API has
// no contribution calendar and no per-repository byte breakdown, so the
// calendar is empty and languages are ranked by repository count.
type RESTSource struct {
	settings
	client *gh.Client
}

// NewRESTSource builds an unauthenticated REST source.
func NewRESTSource(opts ...Option) (*RESTSource, error) {
	s := newSettings(opts)

	base, err := url.Parse(s.restURL)
	if err != nil {
		return nil, fmt.Errorf("github: parse rest url %q: %w", s.restURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	client := gh.NewClient(s.httpClient)
	client.BaseURL = base
	client.UserAgent = userAgent
	return &RESTSource{settings: s, client: client}, nil
}

// Mode implements Source.
func (r *RESTSource) Mode() string { return model.ModeREST }

// Fetch implements Source.
func (r *RESTSource) Fetch(ctx context.Context, username string) (model.Stats, error) {
	const op = "github.rest_fetch"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, _, err := r.client.Users.Get(ctx, username)
	if err != nil {
		return model.Stats{}, r.mapError(op, username, err)
	}
	login := user.GetLogin()
	if login == "" {
		return model.Stats{}, model.WrapKind(op, model.ErrDataFormat, errors.New("profile has no login"))
	}

	listed, _, err := r.client.Repositories.List(ctx, login, &gh.RepositoryListOptions{
		Type:        "owner",
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: r.repoLimit},
	})
	if err != nil {
		return model.Stats{}, r.mapError(op, username, err)
	}

	repos := make([]repoInfo, 0, len(listed))
	for _, repo := range listed {
		if repo == nil || repo.GetFork() {
			continue
		}
		repos = append(repos, repoInfo{
			Name:     repo.GetName(),
			PushedAt: repo.GetPushedAt().Time,
			Language: repo.GetLanguage(),
		})
	}

	now := r.now()
	frequent := languageByCount(repos, now.Add(-r.languageWindow))
	var latestLang string
	if latest, ok := latestRepo(repos); ok {
		latestLang = latest.Language
	}
	res := resolveFields(frequent, []string{frequent, latestLang}, repos, now)

	return model.Stats{
		Username:       login,
		TotalCommits:   0,
		Calendar:       model.ContributionCalendar{},
		LastPush:       res.LastPush,
		LastCommitHash: res.LastCommitHash,
		RecentLanguage: res.RecentLanguage,
		TopLanguage:    res.TopLanguage,
		Mode:           model.ModeREST,
	}, nil
}

func (r *RESTSource) mapError(op, username string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return notFound(op, username)
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return model.WrapKind(op, model.ErrSourceUnavailable, fmt.Errorf("rate limited until %s: %w", rateErr.Rate.Reset.Time.Format("15:04:05"), err))
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return model.WrapKind(op, model.ErrDataFormat, err)
	}
	return classifyTransport(op, err)
}
