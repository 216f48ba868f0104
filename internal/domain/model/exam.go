package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComparisonMode decides whether a higher or lower exam result is better.
type ComparisonMode int

const (
	// CompareScore means higher is better; candidates need score >= MinScore.
	CompareScore ComparisonMode = iota
	// CompareRank means lower is better; candidates need rank <= MaxRank.
	CompareRank
)

func (m ComparisonMode) String() string {
	if m == CompareRank {
		return "rank"
	}
	return "score"
}

// Exam is an entry in the fixed entrance exam catalog.
type Exam struct {
	Slug  string
	Label string
	Mode  ComparisonMode
}

// Exams is the catalog of supported entrance exams.
var Exams = []Exam{
	{Slug: "jee_main", Label: "JEE Main", Mode: CompareScore},
	{Slug: "jee_advanced", Label: "JEE Advanced", Mode: CompareRank},
	{Slug: "neet", Label: "NEET", Mode: CompareScore},
	{Slug: "cat", Label: "CAT", Mode: CompareScore},
	{Slug: "gate", Label: "GATE", Mode: CompareScore},
	{Slug: "clat", Label: "CLAT", Mode: CompareScore},
	{Slug: "cuet", Label: "CUET", Mode: CompareScore},
	{Slug: "bitsat", Label: "BITSAT", Mode: CompareScore},
}

// ExamSlug returns the canonical form of an exam identifier: case folded,
// trimmed, with runs of whitespace, hyphens and underscores collapsed to a
// single underscore. "JEE  Advanced" and "jee-advanced" both become
// "jee_advanced".
func ExamSlug(id string) string {
	// Casers carry state, so each call gets its own.
	folded := cases.Fold().String(strings.TrimSpace(id))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupExam returns the catalog entry for an exam identifier in any
// spelling ExamSlug accepts.
func LookupExam(id string) (Exam, bool) {
	slug := ExamSlug(id)
	for _, e := range Exams {
		if e.Slug == slug {
			return e, true
		}
	}
	return Exam{}, false
}

// ExamMode returns the comparison mode for an exam. Exams missing from the
// catalog are score based.
func ExamMode(id string) ComparisonMode {
	if e, ok := LookupExam(id); ok {
		return e.Mode
	}
	return CompareScore
}

// ExamLabel returns the display label for an exam, or a title-cased slug when
// the exam is not in the catalog.
func ExamLabel(id string) string {
	if e, ok := LookupExam(id); ok {
		return e.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(ExamSlug(id), "_", " "))
}
