package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/statuscard/internal/adapters/http/api"
	service "github.com/okian/statuscard/internal/app"
	"github.com/okian/statuscard/internal/domain/model"
	"github.com/okian/statuscard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg"><text id="role_name">Productive Human</text></svg>`

// mockDeps resolves usernames like the card service and returns canned cards.
type mockDeps struct {
	defaultUser string
	doc         []byte
	err         error
	requested   []string
}

func (m *mockDeps) ResolveUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = m.defaultUser
	}
	if err := service.ValidateUsername(name); err != nil {
		return "", err
	}
	return name, nil
}

func (m *mockDeps) Card(_ context.Context, username string) ([]byte, error) {
	m.requested = append(m.requested, username)
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	opts = append([]api.Option{api.WithLogger(logger.Nop())}, opts...)
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDeps{defaultUser: "owner", doc: []byte(sampleSVG)})

		Convey("Then the health endpoint exposes metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint returns JSON", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["started"], ShouldEqual, true)
		})

		Convey("And the favicon returns no content", func() {
			w := serve(mux, http.MethodGet, "/favicon.ico")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Body.Len(), ShouldEqual, 0)
		})

		Convey("And both card paths are served", func() {
			for _, path := range []string{"/card", "/api/card"} {
				w := serve(mux, http.MethodGet, path)
				So(w.Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestCardHandler(t *testing.T) {
	Convey("Given a card endpoint with a default user", t, func() {
		deps := &mockDeps{defaultUser: "owner", doc: []byte(sampleSVG)}
		mux := newMux(deps)

		Convey("When the username parameter is absent", func() {
			w := serve(mux, http.MethodGet, "/card")

			Convey("Then the default user's card is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.requested, ShouldResemble, []string{"owner"})
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml; charset=utf-8")
				So(w.Header().Get("Cache-Control"), ShouldEqual, "public, max-age=300, s-maxage=300")
				So(w.Body.String(), ShouldEqual, sampleSVG)
			})
		})

		Convey("When a username is given", func() {
			w := serve(mux, http.MethodGet, "/card?username=octo-cat")

			Convey("Then that user is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.requested, ShouldResemble, []string{"octo-cat"})
			})
		})

		Convey("When the username is invalid", func() {
			w := serve(mux, http.MethodGet, "/card?username=bad%20name")

			Convey("Then a plain-text 400 is returned without fetching", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
				So(w.Body.String(), ShouldStartWith, "Invalid username")
				So(deps.requested, ShouldBeEmpty)
			})
		})

		Convey("When the method is not GET", func() {
			w := serve(mux, http.MethodPost, "/card")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})

		Convey("When the method is HEAD", func() {
			w := serve(mux, http.MethodHead, "/card")

			Convey("Then headers are sent without a body", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml; charset=utf-8")
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given no default user", t, func() {
		mux := newMux(&mockDeps{doc: []byte(sampleSVG)})
		w := serve(mux, http.MethodGet, "/card")

		Convey("Then a missing username is a bad request", func() {
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given caching is disabled", t, func() {
		mux := newMux(&mockDeps{defaultUser: "owner", doc: []byte(sampleSVG)}, api.WithCacheMaxAge(0))
		w := serve(mux, http.MethodGet, "/api/card")

		Convey("Then the response is marked uncacheable", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-cache, no-store, must-revalidate")
		})
	})

	Convey("Given card generation failures", t, func() {
		cases := []struct {
			name   string
			err    error
			status int
		}{
			{"generic", errors.New("boom"), http.StatusInternalServerError},
			{"upstream", model.WrapKind("github.graphql_fetch", model.ErrSourceUnavailable, errors.New("Bad credentials")), http.StatusInternalServerError},
			{"not found", model.WrapKind("github.graphql_fetch", model.ErrSourceUnavailable, model.ErrNotFound), http.StatusNotFound},
			{"timeout", model.WrapKind("github.graphql_fetch", model.ErrNetworkTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout},
			{"template", model.NewKind("svgcard.load_template", model.ErrTemplateMissing), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			mux := newMux(&mockDeps{defaultUser: "owner", err: tc.err})
			w := serve(mux, http.MethodGet, "/card")

			Convey("When the failure is "+tc.name, func() {
				So(w.Code, ShouldEqual, tc.status)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
				So(w.Body.String(), ShouldEqual, "Error generating stats card: "+tc.err.Error())
			})
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given the card endpoint", t, func() {
		mux := newMux(&mockDeps{defaultUser: "owner", doc: []byte(sampleSVG)})

		Convey("When no request id is sent", func() {
			w := serve(mux, http.MethodGet, "/card")

			Convey("Then a UUID is generated", func() {
				_, err := uuid.Parse(w.Header().Get(api.RequestIDHeader))
				So(err, ShouldBeNil)
			})
		})

		Convey("When the client sends one", func() {
			req := httptest.NewRequest(http.MethodGet, "/card", nil)
			req.Header.Set(api.RequestIDHeader, "trace-123")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "trace-123")
			})
		})
	})

	Convey("Given a handler reading the id", t, func() {
		var seen string
		h := api.RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFrom(r.Context())
		})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Convey("Then the context carries the response id", func() {
			So(seen, ShouldNotBeEmpty)
			So(seen, ShouldEqual, w.Header().Get(api.RequestIDHeader))
		})
	})
}
