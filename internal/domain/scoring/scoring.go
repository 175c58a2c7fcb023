// Package scoring computes per-dimension capability scores and the weighted
// total for one candidate against one staffing request.
package scoring

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/domain/model"
)

// Default scoring configuration constants.
const (
	maxScoreValue = 100.0
	tagScaleMax   = 5.0

	// Defaults applied when a dimension has no input.
	defaultSkillScore    = 60.0
	defaultDomainScore   = 60.0
	defaultAttitudeScore = 60.0
	defaultQualityScore  = 60.0
	defaultWorkloadScore = 80.0 // no profile: assume mostly available
	specialBaseScore     = 50.0

	// Skill dimension tuning.
	requiredSkillShare = 0.8 // required skills contribute 80% of the score
	maxPreferredSkills = 4
	preferredBonus     = 5.0
	preferredMinScore  = 3

	// Attitude dimension tuning.
	attitudeTagBonus = 5.0
	attitudeScale    = 20.0 // 1-5 tag score to 0-100

	// Special dimension tuning.
	specialPerTagBonus = 10.0

	// Workload dimension bands.
	workloadComfortable = 0.8
	workloadTight       = 0.5

	// Solution roles: share of records counting as a successful delivery.
	successScoreFloor = 80.0
)

// Weights holds the fixed dimension weight table. Values must sum to 1.
type Weights struct {
	Skill    float64
	Domain   float64
	Attitude float64
	Quality  float64
	Workload float64
	Special  float64
}

// DefaultWeights returns the standard six-dimension weight split.
func DefaultWeights() Weights {
	return Weights{
		Skill:    0.30,
		Domain:   0.15,
		Attitude: 0.20,
		Quality:  0.15,
		Workload: 0.15,
		Special:  0.05,
	}
}

// SolutionWeights holds the per-role override split used for designated
// solution roles when a success-rate dimension is computable.
type SolutionWeights struct {
	Technical     float64
	SuccessRate   float64
	Execution     float64
	Knowledge     float64
	Collaboration float64
}

// DefaultSolutionWeights returns the documented solution-role split.
func DefaultSolutionWeights() SolutionWeights {
	return SolutionWeights{
		Technical:     0.25,
		SuccessRate:   0.30,
		Execution:     0.20,
		Knowledge:     0.15,
		Collaboration: 0.10,
	}
}

// DefaultContributionWeights returns the contribution-level multipliers used
// by the quality dimension.
func DefaultContributionWeights() map[model.Contribution]float64 {
	return map[model.Contribution]float64{
		model.ContributionCore:   1.5,
		model.ContributionMajor:  1.2,
		model.ContributionNormal: 1.0,
		model.ContributionMinor:  0.8,
	}
}

// Input bundles everything a candidate is scored on. Profile may be nil:
// absence means "unknown, assume available/neutral" and each dimension
// applies its own default.
type Input struct {
	Request     *model.StaffingRequest
	Profile     *model.CapabilityProfile
	Evaluations []model.TagEvaluation // raw attitude fallback; invalid rows ignored
	Performance []model.ProjectPerformanceRecord
}

// Detail carries per-dimension diagnostics for a scored candidate.
type Detail struct {
	MatchedSkills      []string
	MissingSkills      []string
	InsufficientSkills []string
}

// Result is the full scoring outcome for one candidate.
type Result struct {
	Dimensions      model.DimensionScores
	Total           float64
	SolutionFormula bool // true when the solution-role override applied
	Detail          Detail
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the six-dimension weight table.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithSolutionWeights overrides the solution-role weight split.
func WithSolutionWeights(w SolutionWeights) Option {
	return func(e *Engine) {
		e.solutionWeights = w
	}
}

// WithSolutionRoles sets the role codes subject to the solution override.
func WithSolutionRoles(roles []string) Option {
	return func(e *Engine) {
		e.solutionRoles = make(map[string]bool, len(roles))
		for _, r := range roles {
			if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
				e.solutionRoles[r] = true
			}
		}
	}
}

// WithContributionWeights overrides the contribution-level multipliers.
func WithContributionWeights(weights map[model.Contribution]float64) Option {
	return func(e *Engine) {
		if len(weights) > 0 {
			e.contributionWeights = weights
		}
	}
}

// Engine scores candidates. All methods are pure and order-insensitive;
// the weight and multiplier tables are fixed at construction time.
type Engine struct {
	weights             Weights
	solutionWeights     SolutionWeights
	solutionRoles       map[string]bool
	contributionWeights map[model.Contribution]float64
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:             DefaultWeights(),
		solutionWeights:     DefaultSolutionWeights(),
		solutionRoles:       map[string]bool{},
		contributionWeights: DefaultContributionWeights(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate scores all six dimensions and aggregates the total.
func (e *Engine) Evaluate(in Input) Result {
	var r Result

	skill, detail := e.SkillScore(in.Request, in.Profile)
	r.Detail = detail
	r.Dimensions = model.DimensionScores{
		Skill:    clamp(skill),
		Domain:   clamp(e.DomainScore(in.Request, in.Profile)),
		Attitude: clamp(e.AttitudeScore(in.Request, in.Profile, in.Evaluations)),
		Quality:  clamp(e.QualityScore(in.Performance)),
		Workload: clamp(e.WorkloadScore(in.Request.AllocationPct, in.Profile)),
		Special:  clamp(e.SpecialScore(in.Profile)),
	}

	if e.isSolutionRole(in.Request.RoleCode) && len(in.Performance) > 0 {
		r.Total = e.solutionTotal(r.Dimensions, in.Performance)
		r.SolutionFormula = true
	} else {
		r.Total = e.Total(r.Dimensions)
	}

	return r
}

// SkillScore scores the skill dimension. Required skills contribute 80%:
// full credit (score/5*100) when the tag meets the minimum, half credit
// when present but below it, zero when missing. The first 4 preferred
// skills add a flat bonus each when present with score >= 3.
func (e *Engine) SkillScore(req *model.StaffingRequest, p *model.CapabilityProfile) (float64, Detail) {
	var detail Detail
	tags := map[uuid.UUID]int{}
	if p != nil {
		tags = tagScores(p.SkillTags)
	}

	score := defaultSkillScore
	if len(req.RequiredSkills) > 0 {
		var sum float64
		for _, r := range req.RequiredSkills {
			got, ok := tags[r.TagID]
			switch {
			case !ok:
				detail.MissingSkills = append(detail.MissingSkills, r.TagName)
			case got >= r.MinScore:
				sum += float64(got) / tagScaleMax * maxScoreValue
				detail.MatchedSkills = append(detail.MatchedSkills, r.TagName)
			default:
				// Penalized, not zeroed.
				sum += float64(got) / tagScaleMax * maxScoreValue / 2
				detail.InsufficientSkills = append(detail.InsufficientSkills, r.TagName)
			}
		}
		score = sum / float64(len(req.RequiredSkills)) * requiredSkillShare
	}

	preferred := req.PreferredSkills
	if len(preferred) > maxPreferredSkills {
		preferred = preferred[:maxPreferredSkills]
	}
	for _, r := range preferred {
		if got, ok := tags[r.TagID]; ok && got >= preferredMinScore {
			score += preferredBonus
		}
	}

	return math.Min(score, maxScoreValue), detail
}

// DomainScore scores the domain dimension with the same full/half credit
// rule as skills, with no preferred bonus path.
func (e *Engine) DomainScore(req *model.StaffingRequest, p *model.CapabilityProfile) float64 {
	if len(req.RequiredDomains) == 0 {
		return defaultDomainScore
	}

	tags := map[uuid.UUID]int{}
	if p != nil {
		tags = tagScores(p.DomainTags)
	}

	var sum float64
	for _, r := range req.RequiredDomains {
		got, ok := tags[r.TagID]
		switch {
		case !ok:
			// missing: contributes zero
		case got >= r.MinScore:
			sum += float64(got) / tagScaleMax * maxScoreValue
		default:
			sum += float64(got) / tagScaleMax * maxScoreValue / 2
		}
	}
	return sum / float64(len(req.RequiredDomains))
}

// AttitudeScore prefers the profile's precomputed aggregate, falls back to
// averaging raw valid attitude evaluations, and adds a bonus per requested
// attitude tag that meets its minimum.
func (e *Engine) AttitudeScore(req *model.StaffingRequest, p *model.CapabilityProfile, evals []model.TagEvaluation) float64 {
	score := defaultAttitudeScore
	tags := map[uuid.UUID]int{}

	switch {
	case p != nil && p.AttitudeScore > 0:
		score = p.AttitudeScore
		tags = tagScores(p.AttitudeTags)
	default:
		var sum, n float64
		for _, ev := range evals {
			if !ev.Valid || ev.TagType != model.TagAttitude {
				continue
			}
			sum += float64(ev.Score)
			n++
			if prev, ok := tags[ev.TagID]; !ok || ev.Score > prev {
				tags[ev.TagID] = ev.Score
			}
		}
		if n > 0 {
			score = sum / n * attitudeScale
		}
	}

	for _, r := range req.RequiredAttitudes {
		if got, ok := tags[r.TagID]; ok && got >= r.MinScore {
			score += attitudeTagBonus
		}
	}

	return math.Min(score, maxScoreValue)
}

// QualityScore is the contribution-weighted average of each historical
// record's mean over its non-nil score fields.
func (e *Engine) QualityScore(records []model.ProjectPerformanceRecord) float64 {
	var weightedSum, weightSum float64
	for i := range records {
		mean, ok := recordMean(&records[i])
		if !ok {
			continue
		}
		w, found := e.contributionWeights[records[i].Contribution]
		if !found {
			w = 1.0
		}
		weightedSum += mean * w
		weightSum += w
	}
	if weightSum == 0 {
		return defaultQualityScore
	}
	return math.Min(weightedSum/weightSum, maxScoreValue)
}

// WorkloadScore bands availability against the requested allocation.
func (e *Engine) WorkloadScore(allocationPct float64, p *model.CapabilityProfile) float64 {
	if p == nil {
		return defaultWorkloadScore
	}

	available := maxScoreValue - p.CurrentWorkloadPct
	switch {
	case available >= allocationPct:
		return 100
	case available >= workloadComfortable*allocationPct:
		return 80
	case available >= workloadTight*allocationPct:
		return 50
	case available > 0:
		return available / allocationPct * maxScoreValue
	default:
		return 0
	}
}

// SpecialScore starts from a neutral base and adds a bonus per special tag.
func (e *Engine) SpecialScore(p *model.CapabilityProfile) float64 {
	score := specialBaseScore
	if p == nil {
		return score
	}
	for _, t := range p.SpecialTags {
		score += float64(t.Score) / tagScaleMax * specialPerTagBonus
	}
	return math.Min(score, maxScoreValue)
}

// Total aggregates the six dimension scores with the fixed weight table,
// rounded to two decimals.
func (e *Engine) Total(d model.DimensionScores) float64 {
	total := d.Skill*e.weights.Skill +
		d.Domain*e.weights.Domain +
		d.Attitude*e.weights.Attitude +
		d.Quality*e.weights.Quality +
		d.Workload*e.weights.Workload +
		d.Special*e.weights.Special
	return Round2(total)
}

// solutionTotal applies the solution-role weight split over the mapped
// dimensions: technical<-skill, knowledge<-domain, collaboration<-attitude,
// execution<-workload, plus the success-rate dimension from history.
func (e *Engine) solutionTotal(d model.DimensionScores, records []model.ProjectPerformanceRecord) float64 {
	total := d.Skill*e.solutionWeights.Technical +
		SuccessRate(records)*e.solutionWeights.SuccessRate +
		d.Workload*e.solutionWeights.Execution +
		d.Domain*e.solutionWeights.Knowledge +
		d.Attitude*e.solutionWeights.Collaboration
	return Round2(total)
}

// SuccessRate is the share of historical records with a performance score
// at or above the success floor, scaled to 0-100.
func SuccessRate(records []model.ProjectPerformanceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var ok float64
	for i := range records {
		if ps := records[i].PerformanceScore; ps != nil && *ps >= successScoreFloor {
			ok++
		}
	}
	return ok / float64(len(records)) * maxScoreValue
}

func (e *Engine) isSolutionRole(roleCode string) bool {
	return e.solutionRoles[strings.ToUpper(strings.TrimSpace(roleCode))]
}

// Round2 rounds to two decimal places, the precision persisted for totals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// recordMean averages the non-nil score fields of one record.
func recordMean(r *model.ProjectPerformanceRecord) (float64, bool) {
	var sum, n float64
	for _, s := range []*float64{r.PerformanceScore, r.QualityScore, r.CollaborationScore} {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / n, true
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(maxScoreValue, x))
}

func tagScores(tags []model.ProfileTag) map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(tags))
	for _, t := range tags {
		if prev, ok := m[t.TagID]; !ok || t.Score > prev {
			m[t.TagID] = t.Score
		}
	}
	return m
}
