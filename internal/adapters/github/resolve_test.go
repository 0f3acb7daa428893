package github

import (
	"testing"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolveFields(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	Convey("Given repositories in arbitrary order", t, func() {
		repos := []repoInfo{
			{Name: "older", PushedAt: now.Add(-48 * time.Hour), Language: "Go", HeadCommit: "aaa"},
			{Name: "newest", PushedAt: now.Add(-time.Hour), Language: "Zig", HeadCommit: "bbb"},
		}

		Convey("Then the newest repository drives push time and hash", func() {
			r := resolveFields("Go", []string{"", "Zig"}, repos, now)
			So(r.LastPush, ShouldEqual, now.Add(-time.Hour))
			So(r.LastCommitHash, ShouldEqual, "bbb")
			So(r.RecentLanguage, ShouldEqual, "Go")
			So(r.TopLanguage, ShouldEqual, "Zig")
		})

		Convey("And an empty candidate chain falls back to the recent language", func() {
			r := resolveFields("Go", []string{"", ""}, repos, now)
			So(r.TopLanguage, ShouldEqual, "Go")
		})
	})

	Convey("Given no repositories", t, func() {
		r := resolveFields("", nil, nil, now)
		So(r.RecentLanguage, ShouldEqual, model.DefaultLanguage)
		So(r.TopLanguage, ShouldEqual, model.DefaultLanguage)
		So(r.LastPush, ShouldEqual, now)
		So(r.LastCommitHash, ShouldEqual, model.ZeroCommitHash)
	})
}

func TestLanguageRanking(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-30 * 24 * time.Hour)

	Convey("Given byte breakdowns inside and outside the window", t, func() {
		repos := []repoInfo{
			{PushedAt: now, LanguageBytes: map[string]int64{"Go": 10, "CSS": 40}},
			{PushedAt: now.Add(-time.Hour), LanguageBytes: map[string]int64{"Go": 35}},
			{PushedAt: now.Add(-40 * 24 * time.Hour), LanguageBytes: map[string]int64{"C": 1 << 20}},
		}

		Convey("Then bytes are aggregated across repositories", func() {
			So(languageByBytes(repos, cutoff), ShouldEqual, "Go")
		})
	})

	Convey("Given equal repository counts", t, func() {
		repos := []repoInfo{
			{PushedAt: now, Language: "Ruby"},
			{PushedAt: now, Language: "Elixir"},
			{PushedAt: now, Language: ""},
		}

		Convey("Then ties are broken by name", func() {
			So(languageByCount(repos, cutoff), ShouldEqual, "Elixir")
		})
	})

	Convey("Given nothing inside the window", t, func() {
		repos := []repoInfo{{PushedAt: now.Add(-31 * 24 * time.Hour), Language: "Go"}}
		So(languageByCount(repos, cutoff), ShouldEqual, "")
		So(languageByBytes(repos, cutoff), ShouldEqual, "")
	})
}
