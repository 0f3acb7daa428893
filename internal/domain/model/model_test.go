package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestContributionCalendar(t *testing.T) {
	Convey("Given a calendar spanning two weeks", t, func() {
		d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		cal := model.ContributionCalendar{
			Total: 6,
			Weeks: []model.ContributionWeek{
				{Days: []model.ContributionDay{{Date: d, Count: 1}, {Date: d.AddDate(0, 0, 1), Count: 2}}},
				{Days: []model.ContributionDay{{Date: d.AddDate(0, 0, 2), Count: 3}}},
			},
		}

		Convey("Then Days flattens in chronological order", func() {
			days := cal.Days()
			So(days, ShouldHaveLength, 3)
			So(days[0].Date, ShouldEqual, d)
			So(days[2].Count, ShouldEqual, 3)
		})

		Convey("And Sum recomputes the total", func() {
			So(cal.Sum(), ShouldEqual, cal.Total)
		})
	})

	Convey("Given an empty calendar", t, func() {
		So(model.ContributionCalendar{}.Days(), ShouldBeEmpty)
		So(model.ContributionCalendar{}.Sum(), ShouldEqual, 0)
	})
}

func TestOpError(t *testing.T) {
	Convey("Given a wrapped upstream failure", t, func() {
		cause := errors.New("boom")
		err := model.WrapKind("github.fetch", model.ErrSourceUnavailable, cause)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, model.ErrDataFormat), ShouldBeFalse)
		})

		Convey("And the message carries op, kind and cause", func() {
			So(err.Error(), ShouldEqual, "github.fetch: source unavailable: boom")
		})
	})

	Convey("Given a nil cause", t, func() {
		So(model.WrapKind("op", model.ErrDataFormat, nil), ShouldBeNil)
	})

	Convey("Given a kind without a cause", t, func() {
		err := model.NewKind("api.card", model.ErrInvalidUsername)
		So(errors.Is(err, model.ErrInvalidUsername), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.card: invalid username")
	})
}
