package tools

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Mistake is one sentence flagged by the essay examiner.
type Mistake struct {
	Mistake    string `json:"mistake"`
	Correction string `json:"correction"`
}

// Evaluation is the IELTS examiner's assessment of an essay.
type Evaluation struct {
	Band     float64   `json:"band"`
	Feedback string    `json:"feedback"`
	Mistakes []Mistake `json:"mistakes"`
}

// EvaluateEssay scores an IELTS essay. The essay should include the
// question it answers.
func (t *Toolkit) EvaluateEssay(ctx context.Context, essay string) (*Evaluation, error) {
	if isBlank(essay) {
		return nil, ErrEmptyInput
	}

	var ev Evaluation
	if err := t.structured(ctx, "ielts", ieltsSystem, essay, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ResumeMatch is the resume matcher's analysis.
type ResumeMatch struct {
	MatchScore      string            `json:"match_score"`
	RevisedSummary  string            `json:"revised_summary"`
	PhrasesToAdjust map[string]string `json:"resume_phrases_to_adjust"`
	SkillsToAdd     []string          `json:"skills_to_add"`
	SkillsToRemove  []string          `json:"skills_to_remove"`
}

// PhraseChange is one suggested rewrite of a resume phrase.
type PhraseChange struct {
	From string
	To   string
}

// Phrases returns PhrasesToAdjust sorted by the original phrase.
func (m *ResumeMatch) Phrases() []PhraseChange {
	changes := make([]PhraseChange, 0, len(m.PhrasesToAdjust))
	for _, from := range slices.Sorted(maps.Keys(m.PhrasesToAdjust)) {
		changes = append(changes, PhraseChange{From: from, To: m.PhrasesToAdjust[from]})
	}
	return changes
}

// StrongMatchScore is the score at which a resume counts as a strong match.
const StrongMatchScore = 80

// Score returns MatchScore as a number, accepting "85%", "85" and "85.5%".
func (m *ResumeMatch) Score() (float64, bool) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m.MatchScore), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Strong reports whether the score reaches StrongMatchScore.
func (m *ResumeMatch) Strong() bool {
	v, ok := m.Score()
	return ok && v >= StrongMatchScore
}

// MatchResume compares a resume against a job description.
func (t *Toolkit) MatchResume(ctx context.Context, resume, job string) (*ResumeMatch, error) {
	if isBlank(resume) || isBlank(job) {
		return nil, ErrEmptyInput
	}

	var m ResumeMatch
	if err := t.structured(ctx, "resume", resumeSystem, resumeUser(resume, job), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
