package github_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/statuscard/internal/adapters/github"
	"github.com/okian/statuscard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type restRepo struct {
	name   string
	lang   string
	pushed time.Time
	fork   bool
}

func restServer(calls *int, lastQuery *string, repos []restRepo) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		*lastQuery = r.URL.RawQuery
		items := make([]string, 0, len(repos))
		for _, rp := range repos {
			lang := "null"
			if rp.lang != "" {
				lang = fmt.Sprintf("%q", rp.lang)
			}
			items = append(items, fmt.Sprintf(`{"name":%q,"language":%s,"fork":%t,"pushed_at":%q}`,
				rp.name, lang, rp.fork, rp.pushed.Format(time.RFC3339)))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	return httptest.NewServer(mux)
}

func TestRESTSource_Fetch(t *testing.T) {
	Convey("Given a REST upstream listing owned repositories", t, func() {
		calls := 0
		query := ""
		srv := restServer(&calls, &query, []restRepo{
			{name: "fork", lang: "C", pushed: fixedNow.Add(-10 * time.Minute), fork: true},
			{name: "a", lang: "Go", pushed: fixedNow.Add(-2 * time.Hour)},
			{name: "b", lang: "Python", pushed: fixedNow.Add(-3 * 24 * time.Hour)},
			{name: "c", lang: "Python", pushed: fixedNow.Add(-4 * 24 * time.Hour)},
			{name: "d", lang: "Go", pushed: fixedNow.Add(-90 * 24 * time.Hour)},
			{name: "e", lang: "Go", pushed: fixedNow.Add(-91 * 24 * time.Hour)},
		})
		defer srv.Close()

		src, err := github.NewRESTSource(github.WithRESTURL(srv.URL), github.WithClock(clock), github.WithRepoLimit(20))
		So(err, ShouldBeNil)

		stats, err := src.Fetch(context.Background(), "octocat")

		Convey("Then a profile lookup and a listing are issued", func() {
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 2)
			So(query, ShouldContainSubstring, "sort=pushed")
			So(query, ShouldContainSubstring, "type=owner")
			So(query, ShouldContainSubstring, "per_page=20")
			So(src.Mode(), ShouldEqual, model.ModeREST)
		})

		Convey("And the calendar is synthesized empty", func() {
			So(stats.TotalCommits, ShouldEqual, 0)
			So(stats.Calendar.Weeks, ShouldBeEmpty)
			So(stats.Calendar.Total, ShouldEqual, 0)
		})

		Convey("And languages are ranked by repository count inside the window", func() {
			So(stats.RecentLanguage, ShouldEqual, "Python")
			So(stats.TopLanguage, ShouldEqual, "Python")
		})

		Convey("And forks are ignored for the last push", func() {
			So(stats.LastPush, ShouldEqual, fixedNow.Add(-2*time.Hour))
			So(stats.LastCommitHash, ShouldEqual, model.ZeroCommitHash)
			So(stats.Mode, ShouldEqual, model.ModeREST)
		})
	})

	Convey("Given a user with no repositories", t, func() {
		calls := 0
		query := ""
		srv := restServer(&calls, &query, nil)
		defer srv.Close()

		src, err := github.NewRESTSource(github.WithRESTURL(srv.URL), github.WithClock(clock))
		So(err, ShouldBeNil)
		stats, err := src.Fetch(context.Background(), "octocat")

		Convey("Then defaults are used", func() {
			So(err, ShouldBeNil)
			So(stats.RecentLanguage, ShouldEqual, model.DefaultLanguage)
			So(stats.TopLanguage, ShouldEqual, model.DefaultLanguage)
			So(stats.LastPush, ShouldEqual, fixedNow)
		})
	})

	Convey("Given a user whose only repository is older than the window", t, func() {
		calls := 0
		query := ""
		srv := restServer(&calls, &query, []restRepo{
			{name: "old", lang: "Go", pushed: fixedNow.Add(-40 * 24 * time.Hour)},
		})
		defer srv.Close()

		src, err := github.NewRESTSource(github.WithRESTURL(srv.URL), github.WithClock(clock))
		So(err, ShouldBeNil)
		stats, err := src.Fetch(context.Background(), "octocat")

		Convey("Then the recent language defaults and the top language comes from that repository", func() {
			So(err, ShouldBeNil)
			So(stats.RecentLanguage, ShouldEqual, model.DefaultLanguage)
			So(stats.TopLanguage, ShouldEqual, "Go")
			So(stats.LastPush, ShouldEqual, fixedNow.Add(-40*24*time.Hour))
		})
	})

	Convey("Given an unknown user", t, func() {
		calls := 0
		query := ""
		srv := restServer(&calls, &query, nil)
		defer srv.Close()

		src, err := github.NewRESTSource(github.WithRESTURL(srv.URL))
		So(err, ShouldBeNil)
		_, err = src.Fetch(context.Background(), "nobody")

		Convey("Then the fetch fails as not found without listing", func() {
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})

	Convey("Given a broken REST base URL", t, func() {
		_, err := github.NewRESTSource(github.WithRESTURL("://bad"))
		So(err, ShouldNotBeNil)
	})
}

func TestNewSource(t *testing.T) {
	Convey("Given the source factory", t, func() {
		Convey("When a credential is present", func() {
			src, err := github.NewSource("tok")
			So(err, ShouldBeNil)
			So(src.Mode(), ShouldEqual, model.ModeGraphQL)
		})

		Convey("When the credential is empty", func() {
			src, err := github.NewSource("")
			So(err, ShouldBeNil)
			So(src.Mode(), ShouldEqual, model.ModeREST)
		})
	})
}
