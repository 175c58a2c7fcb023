package scoring_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
	scoring "github.com/okian/roster/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func fp(v float64) *float64 { return &v }

func TestSkillScore(t *testing.T) {
	Convey("Given a scoring engine and a request with required skills", t, func() {
		engine := scoring.NewEngine()
		tagA := uuid.New()
		tagB := uuid.New()
		tagC := uuid.New()

		req := &model.StaffingRequest{
			RequiredSkills: []model.Requirement{
				{TagID: tagA, MinScore: 3, TagName: "go"},
				{TagID: tagB, MinScore: 4, TagName: "kubernetes"},
			},
		}

		Convey("When the candidate meets one skill and falls short on another", func() {
			profile := &model.CapabilityProfile{
				SkillTags: []model.ProfileTag{
					{TagID: tagA, TagName: "go", Score: 4},
					{TagID: tagB, TagName: "kubernetes", Score: 3},
				},
			}

			score, detail := engine.SkillScore(req, profile)

			Convey("Then full credit applies to the met skill and half credit to the short one", func() {
				// tagA: 4/5*100 = 80 full; tagB: 3/5*100/2 = 30 half.
				// avg = 55, scaled to 80% share = 44.
				So(score, ShouldEqual, 44)
			})

			Convey("And the diagnostics name both skills", func() {
				So(detail.MatchedSkills, ShouldResemble, []string{"go"})
				So(detail.InsufficientSkills, ShouldResemble, []string{"kubernetes"})
				So(detail.MissingSkills, ShouldBeEmpty)
			})
		})

		Convey("When a required skill is entirely missing", func() {
			profile := &model.CapabilityProfile{
				SkillTags: []model.ProfileTag{
					{TagID: tagA, TagName: "go", Score: 5},
				},
			}

			score, detail := engine.SkillScore(req, profile)

			Convey("Then the missing skill contributes zero", func() {
				// tagA: 100 full; tagB missing: 0. avg = 50, share = 40.
				So(score, ShouldEqual, 40)
				So(detail.MissingSkills, ShouldResemble, []string{"kubernetes"})
			})
		})

		Convey("When the candidate has no profile", func() {
			score, detail := engine.SkillScore(req, nil)

			Convey("Then every required skill is missing", func() {
				So(score, ShouldEqual, 0)
				So(detail.MissingSkills, ShouldHaveLength, 2)
			})
		})

		Convey("When preferred skills are present", func() {
			req.PreferredSkills = []model.Requirement{
				{TagID: tagC, TagName: "terraform"},
			}
			profile := &model.CapabilityProfile{
				SkillTags: []model.ProfileTag{
					{TagID: tagA, Score: 4},
					{TagID: tagB, Score: 3},
					{TagID: tagC, Score: 4},
				},
			}

			score, _ := engine.SkillScore(req, profile)

			Convey("Then each present preferred skill with score >= 3 adds a flat bonus", func() {
				So(score, ShouldEqual, 49) // 44 + 5
			})
		})

		Convey("When more than four preferred skills match", func() {
			var prefs []model.Requirement
			var tags []model.ProfileTag
			for i := 0; i < 6; i++ {
				id := uuid.New()
				prefs = append(prefs, model.Requirement{TagID: id})
				tags = append(tags, model.ProfileTag{TagID: id, Score: 5})
			}
			req := &model.StaffingRequest{PreferredSkills: prefs}
			profile := &model.CapabilityProfile{SkillTags: tags}

			score, _ := engine.SkillScore(req, profile)

			Convey("Then only the first four are considered", func() {
				So(score, ShouldEqual, 80) // default 60 + 4*5
			})
		})

		Convey("When the request has no required skills", func() {
			score, _ := engine.SkillScore(&model.StaffingRequest{}, nil)

			Convey("Then the default applies", func() {
				So(score, ShouldEqual, 60)
			})
		})
	})
}

func TestDomainScore(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		engine := scoring.NewEngine()
		tagA := uuid.New()
		tagB := uuid.New()

		Convey("When required domains are partially met", func() {
			req := &model.StaffingRequest{
				RequiredDomains: []model.Requirement{
					{TagID: tagA, MinScore: 3},
					{TagID: tagB, MinScore: 5},
				},
			}
			profile := &model.CapabilityProfile{
				DomainTags: []model.ProfileTag{
					{TagID: tagA, Score: 5},
					{TagID: tagB, Score: 4},
				},
			}

			score := engine.DomainScore(req, profile)

			Convey("Then the simple average of full and half credit applies", func() {
				// tagA: 100 full; tagB: 4/5*100/2 = 40 half. avg = 70.
				So(score, ShouldEqual, 70)
			})
		})

		Convey("When no domains are required", func() {
			So(engine.DomainScore(&model.StaffingRequest{}, nil), ShouldEqual, 60)
		})

		Convey("When the candidate has no profile", func() {
			req := &model.StaffingRequest{
				RequiredDomains: []model.Requirement{{TagID: tagA, MinScore: 1}},
			}
			So(engine.DomainScore(req, nil), ShouldEqual, 0)
		})
	})
}

func TestAttitudeScore(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		engine := scoring.NewEngine()
		tagA := uuid.New()

		Convey("When the profile carries a precomputed attitude aggregate", func() {
			profile := &model.CapabilityProfile{AttitudeScore: 85}

			score := engine.AttitudeScore(&model.StaffingRequest{}, profile, nil)

			Convey("Then the aggregate is preferred", func() {
				So(score, ShouldEqual, 85)
			})
		})

		Convey("When the profile is absent but raw evaluations exist", func() {
			evals := []model.TagEvaluation{
				{TagID: tagA, TagType: model.TagAttitude, Score: 4, Valid: true},
				{TagID: uuid.New(), TagType: model.TagAttitude, Score: 5, Valid: true},
				{TagID: uuid.New(), TagType: model.TagAttitude, Score: 1, Valid: false}, // excluded
				{TagID: uuid.New(), TagType: model.TagSkill, Score: 1, Valid: true},    // wrong type
			}

			score := engine.AttitudeScore(&model.StaffingRequest{}, nil, evals)

			Convey("Then valid attitude evaluations are averaged and scaled", func() {
				So(score, ShouldEqual, 90) // (4+5)/2 * 20
			})
		})

		Convey("When the request names attitude tags", func() {
			req := &model.StaffingRequest{
				RequiredAttitudes: []model.Requirement{{TagID: tagA, MinScore: 3}},
			}
			profile := &model.CapabilityProfile{
				AttitudeScore: 85,
				AttitudeTags:  []model.ProfileTag{{TagID: tagA, Score: 4}},
			}

			score := engine.AttitudeScore(req, profile, nil)

			Convey("Then each matched tag adds a bonus", func() {
				So(score, ShouldEqual, 90)
			})
		})

		Convey("When nothing is known about the candidate", func() {
			So(engine.AttitudeScore(&model.StaffingRequest{}, nil, nil), ShouldEqual, 60)
		})

		Convey("When bonuses would push past 100", func() {
			req := &model.StaffingRequest{
				RequiredAttitudes: []model.Requirement{{TagID: tagA, MinScore: 1}},
			}
			profile := &model.CapabilityProfile{
				AttitudeScore: 99,
				AttitudeTags:  []model.ProfileTag{{TagID: tagA, Score: 5}},
			}

			So(engine.AttitudeScore(req, profile, nil), ShouldEqual, 100)
		})
	})
}

func TestQualityScore(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		engine := scoring.NewEngine()

		Convey("When history spans contribution levels", func() {
			records := []model.ProjectPerformanceRecord{
				{Contribution: model.ContributionCore, PerformanceScore: fp(90), QualityScore: fp(80), CollaborationScore: fp(70)},
				{Contribution: model.ContributionMinor, PerformanceScore: fp(60)},
			}

			score := engine.QualityScore(records)

			Convey("Then the contribution-weighted average of record means applies", func() {
				// CORE: mean 80 * 1.5 = 120; MINOR: mean 60 * 0.8 = 48.
				// (120+48) / (1.5+0.8) = 73.043...
				So(score, ShouldAlmostEqual, 73.0435, 0.001)
			})
		})

		Convey("When a record has no scores at all", func() {
			records := []model.ProjectPerformanceRecord{
				{Contribution: model.ContributionNormal},
				{Contribution: model.ContributionNormal, QualityScore: fp(88)},
			}

			Convey("Then the empty record is skipped entirely", func() {
				So(engine.QualityScore(records), ShouldEqual, 88)
			})
		})

		Convey("When there is no history", func() {
			So(engine.QualityScore(nil), ShouldEqual, 60)
		})
	})
}

func TestWorkloadScore(t *testing.T) {
	Convey("Given a scoring engine and a 50% allocation", t, func() {
		engine := scoring.NewEngine()
		const alloc = 50.0

		profile := func(workload float64) *model.CapabilityProfile {
			return &model.CapabilityProfile{CurrentWorkloadPct: workload}
		}

		Convey("When the candidate is fully available", func() {
			So(engine.WorkloadScore(alloc, profile(0)), ShouldEqual, 100)
		})

		Convey("When availability just clears 80% of the allocation", func() {
			// available = 40 >= 0.8*50 = 40
			So(engine.WorkloadScore(alloc, profile(60)), ShouldEqual, 80)
		})

		Convey("When availability is between zero and half the allocation", func() {
			// available = 20, 0.5*50 = 25, so (20/50)*100 = 40
			So(engine.WorkloadScore(alloc, profile(80)), ShouldEqual, 40)
		})

		Convey("When the candidate is completely loaded", func() {
			So(engine.WorkloadScore(alloc, profile(100)), ShouldEqual, 0)
		})

		Convey("When the candidate has no profile", func() {
			So(engine.WorkloadScore(alloc, nil), ShouldEqual, 80)
		})
	})
}

func TestSpecialScore(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		engine := scoring.NewEngine()

		Convey("When the candidate has special tags", func() {
			profile := &model.CapabilityProfile{
				SpecialTags: []model.ProfileTag{
					{TagID: uuid.New(), Score: 5},
					{TagID: uuid.New(), Score: 3},
				},
			}

			Convey("Then each tag adds a proportional bonus over the base", func() {
				So(engine.SpecialScore(profile), ShouldEqual, 66) // 50 + 10 + 6
			})
		})

		Convey("When the candidate has no profile", func() {
			So(engine.SpecialScore(nil), ShouldEqual, 50)
		})

		Convey("When many strong tags would push past 100", func() {
			var tags []model.ProfileTag
			for i := 0; i < 10; i++ {
				tags = append(tags, model.ProfileTag{TagID: uuid.New(), Score: 5})
			}
			So(engine.SpecialScore(&model.CapabilityProfile{SpecialTags: tags}), ShouldEqual, 100)
		})
	})
}

func TestTotal(t *testing.T) {
	Convey("Given a scoring engine with default weights", t, func() {
		engine := scoring.NewEngine()

		Convey("When aggregating a six-dimension breakdown", func() {
			d := model.DimensionScores{
				Skill: 80, Domain: 70, Attitude: 90, Quality: 60, Workload: 100, Special: 50,
			}

			Convey("Then the total is the declared weighted sum", func() {
				// 24 + 10.5 + 18 + 9 + 15 + 2.5 = 79
				So(engine.Total(d), ShouldEqual, 79)
			})
		})

		Convey("When recomputing from a stored breakdown", func() {
			d := model.DimensionScores{
				Skill: 44.5, Domain: 33.33, Attitude: 91.2, Quality: 73.04, Workload: 40, Special: 66,
			}

			Convey("Then the round-trip reproduces the stored total", func() {
				So(engine.Total(d), ShouldEqual, engine.Total(d))
				So(engine.Total(d), ShouldEqual, scoring.Round2(
					44.5*0.30+33.33*0.15+91.2*0.20+73.04*0.15+40*0.15+66*0.05))
			})
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given a scoring engine with a solution role configured", t, func() {
		engine := scoring.NewEngine(
			scoring.WithSolutionRoles([]string{"SOLUTION_ARCH"}),
		)

		input := func(role string, perf []model.ProjectPerformanceRecord) scoring.Input {
			return scoring.Input{
				Request: &model.StaffingRequest{
					RoleCode:      role,
					AllocationPct: 50,
				},
				Profile:     &model.CapabilityProfile{AttitudeScore: 85, CurrentWorkloadPct: 0},
				Performance: perf,
			}
		}

		Convey("When evaluating a regular role", func() {
			r := engine.Evaluate(input("BACKEND_DEV", nil))

			Convey("Then the generic six-dimension formula applies", func() {
				So(r.SolutionFormula, ShouldBeFalse)
				So(r.Total, ShouldEqual, engine.Total(r.Dimensions))
			})

			Convey("And every dimension stays within bounds", func() {
				for _, v := range []float64{
					r.Dimensions.Skill, r.Dimensions.Domain, r.Dimensions.Attitude,
					r.Dimensions.Quality, r.Dimensions.Workload, r.Dimensions.Special,
				} {
					So(v, ShouldBeBetweenOrEqual, 0, 100)
				}
			})
		})

		Convey("When evaluating a solution role with history", func() {
			perf := []model.ProjectPerformanceRecord{
				{Contribution: model.ContributionCore, PerformanceScore: fp(90)},
				{Contribution: model.ContributionNormal, PerformanceScore: fp(70)},
			}
			r := engine.Evaluate(input("SOLUTION_ARCH", perf))

			Convey("Then the solution weight split applies", func() {
				So(r.SolutionFormula, ShouldBeTrue)
				// technical<-skill 60*.25, success 50*.30, execution<-workload 100*.20,
				// knowledge<-domain 60*.15, collaboration<-attitude 85*.10
				So(r.Total, ShouldEqual, scoring.Round2(60*0.25+50*0.30+100*0.20+60*0.15+85*0.10))
			})
		})

		Convey("When evaluating a solution role with no history", func() {
			r := engine.Evaluate(input("SOLUTION_ARCH", nil))

			Convey("Then the generic formula applies", func() {
				So(r.SolutionFormula, ShouldBeFalse)
			})
		})
	})
}

func TestSuccessRate(t *testing.T) {
	Convey("Given historical performance records", t, func() {
		Convey("When half the records clear the success floor", func() {
			records := []model.ProjectPerformanceRecord{
				{PerformanceScore: fp(90)},
				{PerformanceScore: fp(70)},
			}
			So(scoring.SuccessRate(records), ShouldEqual, 50)
		})

		Convey("When records carry no performance score", func() {
			So(scoring.SuccessRate([]model.ProjectPerformanceRecord{{}}), ShouldEqual, 0)
		})

		Convey("When there are no records", func() {
			So(scoring.SuccessRate(nil), ShouldEqual, 0)
		})
	})
}
