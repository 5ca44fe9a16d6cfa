package classify

import "domain-validator/internal/model"

const (
	MinScore = 0.0
	MaxScore = 10.0

	defaultBaseScore = 3.0

	bonusMX      = 0.5
	bonusA       = 0.3
	bonusWebsite = 0.5
	bonusSSL     = 0.7
)

var baseScores = map[model.DomainType]float64{
	model.TypeCorporate:      8.0,
	model.TypeEducational:    7.0,
	model.TypeGovernment:     9.0,
	model.TypePublicProvider: 5.0,
	model.TypeDisposable:     1.0,
	model.TypeSuspicious:     2.0,
	model.TypeUnreachable:    0.0,
}

// Score computes the 0-10 quality score for a category and its technical signals.
// An unreachable domain always scores zero, whatever the HTTP side saw.
func Score(t model.DomainType, probe model.ProbeResult) float64 {
	if t == model.TypeUnreachable {
		return MinScore
	}
	score, ok := baseScores[t]
	if !ok {
		score = defaultBaseScore
	}

	if probe.HasMX {
		score += bonusMX
	}
	if probe.HasA {
		score += bonusA
	}
	if probe.WebsiteAccessible {
		score += bonusWebsite
	}
	if probe.HasSSL {
		score += bonusSSL
	}
	return Clamp(score)
}

// Clamp bounds s to [MinScore, MaxScore].
func Clamp(s float64) float64 {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// Recommend turns a category and score into an action. The reject rule is
// checked first and wins over every accept rule.
func Recommend(t model.DomainType, score float64) model.Recommendation {
	if t == model.TypeDisposable || score < 3.0 {
		return model.RecommendReject
	}
	if t == model.TypeCorporate && score >= 7.0 {
		return model.RecommendAccept
	}
	if t == model.TypeEducational || t == model.TypeGovernment {
		return model.RecommendAccept
	}
	return model.RecommendManualReview
}
