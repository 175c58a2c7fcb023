package rank_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/rank"
	"github.com/okian/roster/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThreshold(t *testing.T) {
	Convey("Given a classifier with default thresholds", t, func() {
		c := rank.NewClassifier()

		Convey("When looking up each priority", func() {
			So(c.Threshold(model.PriorityP1), ShouldEqual, 85)
			So(c.Threshold(model.PriorityP2), ShouldEqual, 75)
			So(c.Threshold(model.PriorityP3), ShouldEqual, 65)
			So(c.Threshold(model.PriorityP4), ShouldEqual, 55)
			So(c.Threshold(model.PriorityP5), ShouldEqual, 50)
		})

		Convey("When looking up an unrecognized priority", func() {
			So(c.Threshold(model.Priority("P9")), ShouldEqual, 65)
		})
	})

	Convey("Given a classifier with overridden thresholds", t, func() {
		c := rank.NewClassifier(rank.WithThresholds(rank.Thresholds{
			model.PriorityP1: 90,
		}))

		So(c.Threshold(model.PriorityP1), ShouldEqual, 90)
	})
}

func TestTier(t *testing.T) {
	Convey("Given a classifier and a threshold of 65", t, func() {
		c := rank.NewClassifier()
		const threshold = 65.0

		Convey("Then the tier is a pure function of score against threshold", func() {
			So(c.Tier(81, threshold), ShouldEqual, model.TierStrong)      // 81 >= 80
			So(c.Tier(80, threshold), ShouldEqual, model.TierStrong)      // boundary
			So(c.Tier(70, threshold), ShouldEqual, model.TierRecommended) // 70 >= 65
			So(c.Tier(58, threshold), ShouldEqual, model.TierAcceptable)  // 58 >= 55
			So(c.Tier(55, threshold), ShouldEqual, model.TierAcceptable)  // boundary
			So(c.Tier(50, threshold), ShouldEqual, model.TierWeak)
		})
	})
}

func TestOrder(t *testing.T) {
	Convey("Given an unsorted candidate pool", t, func() {
		a := uuid.New()
		b := uuid.New()
		c := uuid.New()
		d := uuid.New()
		pool := []types.Candidate{
			{EmployeeID: a, TotalScore: 70},
			{EmployeeID: b, TotalScore: 90},
			{EmployeeID: c, TotalScore: 70}, // tie with a; a was first in pool order
			{EmployeeID: d, TotalScore: 85},
		}

		Convey("When ordering without truncation", func() {
			out := rank.Order(pool, 0)

			Convey("Then ranks are dense 1..N by non-increasing score", func() {
				So(out, ShouldHaveLength, 4)
				for i, cand := range out {
					So(cand.Rank, ShouldEqual, i+1)
				}
				So(out[0].EmployeeID, ShouldEqual, b)
				So(out[1].EmployeeID, ShouldEqual, d)
			})

			Convey("And ties keep their original pool order", func() {
				So(out[2].EmployeeID, ShouldEqual, a)
				So(out[3].EmployeeID, ShouldEqual, c)
			})
		})

		Convey("When truncating to the top two", func() {
			out := rank.Order(pool, 2)

			So(out, ShouldHaveLength, 2)
			So(out[0].EmployeeID, ShouldEqual, b)
			So(out[0].Rank, ShouldEqual, 1)
			So(out[1].EmployeeID, ShouldEqual, d)
			So(out[1].Rank, ShouldEqual, 2)
		})
	})
}

func TestQualifiedCount(t *testing.T) {
	Convey("Given ranked candidates and a threshold", t, func() {
		pool := []types.Candidate{
			{TotalScore: 90},
			{TotalScore: 75},
			{TotalScore: 74.99},
			{TotalScore: 10},
		}

		Convey("Then exactly the candidates at or above the threshold count", func() {
			n := rank.QualifiedCount(pool, 75)
			So(n, ShouldEqual, 2)
			So(n, ShouldBeLessThanOrEqualTo, len(pool))
		})
	})
}
