package model

import "strings"

// SourceRecord is one row of the input corpus
type SourceRecord struct {
	ID   string // record_id column; not guaranteed stable across corpus refreshes
	Text string // question column
}

// LedgerEntry marks a source record as transformed
type LedgerEntry struct {
	RecordID    string // Source identifier at the time of processing
	Fingerprint string // Content fingerprint of the source text
}

// Classification is the taxonomy placement of a source question
type Classification struct {
	Topic        string `json:"topic"`    // Free-text topic (e.g., "Kawasaki disease")
	SubjectCode  int    `json:"subject"`  // Subject code, see Subjects
	CategoryCode int    `json:"nbme_cat"` // Category code, see Categories
	Anchor       string `json:"anchor"`   // Question posed to the reader
}

// DefaultAnchor is used when the classifier does not supply one
const DefaultAnchor = "What is the most likely diagnosis?"

// DefaultClassification returns the sentinel classification
func DefaultClassification() Classification {
	return Classification{
		Topic:        "",
		SubjectCode:  SubjectPending,
		CategoryCode: CategoryUnknown,
		Anchor:       DefaultAnchor,
	}
}

// GeneratedPayload is the structured object the generator is asked to emit
type GeneratedPayload struct {
	Question      string  `json:"question" validate:"required"`
	Anchor        string  `json:"anchor"`
	ChoiceA       string  `json:"answerchoice_a" validate:"required"`
	ChoiceB       string  `json:"answerchoice_b" validate:"required"`
	ChoiceC       string  `json:"answerchoice_c" validate:"required"`
	ChoiceD       string  `json:"answerchoice_d" validate:"required"`
	ChoiceE       string  `json:"answerchoice_e" validate:"required"`
	CorrectAnswer string  `json:"correct_answer" validate:"required,oneof=a b c d e"`
	Explanation   string  `json:"answer_explanation" validate:"required"`
	Age           float64 `json:"age" validate:"gte=0"`
}

// Normalize lower-cases and trims the correct answer letter
func (p *GeneratedPayload) Normalize() {
	p.CorrectAnswer = NormalizeAnswer(p.CorrectAnswer)
}

// NormalizeAnswer maps " B ", "b)" or "(B)" to "b"
func NormalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "().: ")
	return s
}

// GeneratedRecord is one validated quiz item ready for the store
type GeneratedRecord struct {
	RecordID      string
	Question      string
	Anchor        string
	Choices       [5]string // a..e
	CorrectAnswer string    // one of a, b, c, d, e
	Explanation   string
	Age           float64 // decimal years
	SubjectCode   int
	Topic         string
	CategoryCode  int
	TypeCode      int
}

// NewGeneratedRecord combines a generator payload and the row's classification
func NewGeneratedRecord(id string, p GeneratedPayload, c Classification, typeCode int) GeneratedRecord {
	anchor := p.Anchor
	if anchor == "" {
		anchor = c.Anchor
	}
	return GeneratedRecord{
		RecordID:      id,
		Question:      p.Question,
		Anchor:        anchor,
		Choices:       [5]string{p.ChoiceA, p.ChoiceB, p.ChoiceC, p.ChoiceD, p.ChoiceE},
		CorrectAnswer: NormalizeAnswer(p.CorrectAnswer),
		Explanation:   p.Explanation,
		Age:           p.Age,
		SubjectCode:   c.SubjectCode,
		Topic:         c.Topic,
		CategoryCode:  c.CategoryCode,
		TypeCode:      typeCode,
	}
}
