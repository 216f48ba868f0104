package application

import "github.com/ericfisherdev/collegedesk/internal/domain/model"

// CheckEligibility decides whether a candidate with the given exam result
// qualifies for a college with the given cutoffs.
//
// A college with no cutoffs at all is open to everyone. A college with cutoffs
// that do not cover the exam is closed to that exam. For rank-mode exams score
// is a rank and must not exceed MaxRank; otherwise it must reach MinScore.
// Missing bounds impose no constraint.
func CheckEligibility(examID string, score float64, cutoffs []model.Cutoff) bool {
	if len(cutoffs) == 0 {
		return true
	}

	cutoff, ok := findCutoff(examID, cutoffs)
	if !ok {
		return false
	}

	if model.ExamMode(examID) == model.CompareRank {
		if cutoff.MaxRank == nil {
			return true
		}
		return score <= *cutoff.MaxRank
	}

	minScore := 0.0
	if cutoff.MinScore != nil {
		minScore = *cutoff.MinScore
	}
	return score >= minScore
}

// findCutoff returns the first cutoff whose exam matches examID after slug normalisation.
func findCutoff(examID string, cutoffs []model.Cutoff) (model.Cutoff, bool) {
	slug := model.ExamSlug(examID)
	for _, c := range cutoffs {
		if model.ExamSlug(c.Exam) == slug {
			return c, true
		}
	}
	return model.Cutoff{}, false
}
