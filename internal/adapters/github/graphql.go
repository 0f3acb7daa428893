package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
	"golang.org/x/oauth2"
)

const maxErrorBody = 4 << 10

const statsQuery = `query($login: String!, $repoLimit: Int!, $languageLimit: Int!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks { contributionDays { contributionCount date } }
      }
    }
    repositories(first: $repoLimit, orderBy: {field: PUSHED_AT, direction: DESC}, ownerAffiliations: OWNER, isFork: false) {
      nodes {
        name
        pushedAt
        primaryLanguage { name }
        defaultBranchRef { target { ... on Commit { oid } } }
        languages(first: $languageLimit, orderBy: {field: SIZE, direction: DESC}) { edges { size node { name } } }
      }
    }
    topRepositories(first: 1, orderBy: {field: STARGAZERS, direction: DESC}) {
      nodes { primaryLanguage { name } }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data *struct {
		User *gqlUser `json:"user"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type gqlLanguage struct {
	Name string `json:"name"`
}

type gqlUser struct {
	ContributionsCollection *struct {
		ContributionCalendar *struct {
			TotalContributions int `json:"totalContributions"`
			Weeks              []struct {
				ContributionDays []struct {
					ContributionCount int    `json:"contributionCount"`
					Date              string `json:"date"`
				} `json:"contributionDays"`
			} `json:"weeks"`
		} `json:"contributionCalendar"`
	} `json:"contributionsCollection"`
	Repositories *struct {
		Nodes []gqlRepo `json:"nodes"`
	} `json:"repositories"`
	TopRepositories *struct {
		Nodes []struct {
			PrimaryLanguage *gqlLanguage `json:"primaryLanguage"`
		} `json:"nodes"`
	} `json:"topRepositories"`
}

type gqlRepo struct {
	Name             string       `json:"name"`
	PushedAt         time.Time    `json:"pushedAt"`
	PrimaryLanguage  *gqlLanguage `json:"primaryLanguage"`
	DefaultBranchRef *struct {
		Target *struct {
			Oid string `json:"oid"`
		} `json:"target"`
	} `json:"defaultBranchRef"`
	Languages *struct {
		Edges []struct {
			Size int64       `json:"size"`
			Node gqlLanguage `json:"node"`
		} `json:"edges"`
	} `json:"languages"`
}

// GraphQLSource fetches stats with one authenticated GraphQL query.
type GraphQLSource struct {
	settings
	client *http.Client
}

// NewGraphQLSource builds a source sending token as a bearer credential.
func NewGraphQLSource(token string, opts ...Option) *GraphQLSource {
	s := newSettings(opts)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return &GraphQLSource{settings: s, client: client}
}

// Mode implements Source.
func (g *GraphQLSource) Mode() string { return model.ModeGraphQL }

// Fetch implements Source.
func (g *GraphQLSource) Fetch(ctx context.Context, username string) (model.Stats, error) {
	const op = "github.graphql_fetch"

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	user, err := g.query(ctx, op, username)
	if err != nil {
		return model.Stats{}, err
	}
	return g.toStats(op, username, user)
}

func (g *GraphQLSource) query(ctx context.Context, op, username string) (*gqlUser, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: statsQuery,
		Variables: map[string]any{
			"login":         username,
			"repoLimit":     g.repoLimit,
			"languageLimit": languagesPerRepo,
		},
	})
	if err != nil {
		return nil, model.WrapKind(op, model.ErrDataFormat, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, model.WrapKind(op, model.ErrSourceUnavailable,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, upstreamMessage(snippet)))
	}

	var out graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, classifyTransport(op, err)
		}
		return nil, model.WrapKind(op, model.ErrDataFormat, fmt.Errorf("decode response: %w", err))
	}

	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			if e.Type == "NOT_FOUND" {
				return nil, notFound(op, username)
			}
			msgs = append(msgs, e.Message)
		}
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, errors.New(strings.Join(msgs, "; ")))
	}
	if out.Data == nil {
		return nil, model.WrapKind(op, model.ErrDataFormat, errors.New("response has no data"))
	}
	if out.Data.User == nil {
		return nil, notFound(op, username)
	}
	return out.Data.User, nil
}

func (g *GraphQLSource) toStats(op, username string, u *gqlUser) (model.Stats, error) {
	if u.ContributionsCollection == nil || u.ContributionsCollection.ContributionCalendar == nil {
		return model.Stats{}, model.WrapKind(op, model.ErrDataFormat, errors.New("missing contribution calendar"))
	}
	if u.Repositories == nil {
		return model.Stats{}, model.WrapKind(op, model.ErrDataFormat, errors.New("missing repositories"))
	}

	raw := u.ContributionsCollection.ContributionCalendar
	cal := model.ContributionCalendar{
		Total: raw.TotalContributions,
		Weeks: make([]model.ContributionWeek, 0, len(raw.Weeks)),
	}
	for _, w := range raw.Weeks {
		week := model.ContributionWeek{Days: make([]model.ContributionDay, 0, len(w.ContributionDays))}
		for _, d := range w.ContributionDays {
			date, err := time.Parse(time.DateOnly, d.Date)
			if err != nil {
				return model.Stats{}, model.WrapKind(op, model.ErrDataFormat, fmt.Errorf("contribution date: %w", err))
			}
			week.Days = append(week.Days, model.ContributionDay{Date: date, Count: d.ContributionCount})
		}
		cal.Weeks = append(cal.Weeks, week)
	}

	repos := make([]repoInfo, 0, len(u.Repositories.Nodes))
	for _, n := range u.Repositories.Nodes {
		info := repoInfo{Name: n.Name, PushedAt: n.PushedAt}
		if n.PrimaryLanguage != nil {
			info.Language = n.PrimaryLanguage.Name
		}
		if n.DefaultBranchRef != nil && n.DefaultBranchRef.Target != nil {
			info.HeadCommit = n.DefaultBranchRef.Target.Oid
		}
		if n.Languages != nil {
			info.LanguageBytes = make(map[string]int64, len(n.Languages.Edges))
			for _, e := range n.Languages.Edges {
				info.LanguageBytes[e.Node.Name] += e.Size
			}
		}
		repos = append(repos, info)
	}

	var starred string
	if u.TopRepositories != nil && len(u.TopRepositories.Nodes) > 0 && u.TopRepositories.Nodes[0].PrimaryLanguage != nil {
		starred = u.TopRepositories.Nodes[0].PrimaryLanguage.Name
	}
	var latestLang string
	if latest, ok := latestRepo(repos); ok {
		latestLang = latest.Language
	}

	now := g.now()
	r := resolveFields(languageByBytes(repos, now.Add(-g.languageWindow)), []string{starred, latestLang}, repos, now)

	return model.Stats{
		Username:       username,
		TotalCommits:   cal.Total,
		Calendar:       cal,
		LastPush:       r.LastPush,
		LastCommitHash: r.LastCommitHash,
		RecentLanguage: r.RecentLanguage,
		TopLanguage:    r.TopLanguage,
		Mode:           model.ModeGraphQL,
	}, nil
}

// upstreamMessage extracts GitHub's {"message": ...} from an error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
