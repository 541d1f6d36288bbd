package assessment

import (
	"fmt"
	"strings"
)

// Category is a learner classification.
type Category string

const (
	Bright  Category = "Bright"
	Average Category = "Average"
	Weak    Category = "Weak"
	Unknown Category = "Unknown"
)

// CodingLevel is a student's self-reported or assessed coding expertise.
type CodingLevel string

const (
	CodingAdvanced     CodingLevel = "Advanced"
	CodingIntermediate CodingLevel = "Intermediate"
	CodingBeginner     CodingLevel = "Beginner"
	CodingNone         CodingLevel = ""
)

// ParseCodingLevel accepts the sheet abbreviations A, I and B as well as the
// full level names in any case. Anything else yields CodingNone.
func ParseCodingLevel(s string) CodingLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "ADVANCED", "ADVANCE":
		return CodingAdvanced
	case "I", "INTERMEDIATE":
		return CodingIntermediate
	case "B", "BEGINNER":
		return CodingBeginner
	default:
		return CodingNone
	}
}

// Policy holds the category cutoffs. The effective score of a student is the
// performance percentage plus the adjustment of their coding level; Bright
// needs at least BrightMin and Average at least AverageMin.
type Policy struct {
	BrightMin        float64
	AverageMin       float64
	CodingAdjustment map[CodingLevel]float64
}

// DefaultPolicy returns the cutoffs used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		BrightMin:  75,
		AverageMin: 60,
		CodingAdjustment: map[CodingLevel]float64{
			CodingAdvanced:     5,
			CodingIntermediate: 0,
			CodingBeginner:     0,
		},
	}
}

// Validate checks that the cutoffs are ordered and non-negative.
func (p Policy) Validate() error {
	if p.AverageMin < 0 {
		return fmt.Errorf("average cutoff must not be negative: %.2f", p.AverageMin)
	}
	if p.BrightMin < p.AverageMin {
		return fmt.Errorf("bright cutoff %.2f is below average cutoff %.2f", p.BrightMin, p.AverageMin)
	}
	for level, adj := range p.CodingAdjustment {
		if adj < 0 {
			return fmt.Errorf("coding adjustment for %q must not be negative", level)
		}
	}
	adv := p.CodingAdjustment[CodingAdvanced]
	mid := p.CodingAdjustment[CodingIntermediate]
	beg := p.CodingAdjustment[CodingBeginner]
	if adv < mid || mid < beg {
		return fmt.Errorf("coding adjustments must not decrease with level: advanced=%.2f intermediate=%.2f beginner=%.2f", adv, mid, beg)
	}
	return nil
}

// StudentCategory classifies a student. ok reports whether performance is
// available; without it the result is Unknown. The outcome never decreases
// when performance or coding level increases.
func StudentCategory(performance float64, ok bool, coding CodingLevel, p Policy) Category {
	if !ok {
		return Unknown
	}
	score := performance + p.CodingAdjustment[coding]
	switch {
	case score >= p.BrightMin:
		return Bright
	case score >= p.AverageMin:
		return Average
	default:
		return Weak
	}
}

// Suggestion returns a short study recommendation for a category.
func Suggestion(c Category) string {
	switch c {
	case Bright:
		return "Offer advanced projects and peer mentoring roles"
	case Average:
		return "Target weaker subjects with regular practice"
	case Weak:
		return "Schedule remedial sessions and close monitoring"
	default:
		return "Insufficient marks to recommend"
	}
}
