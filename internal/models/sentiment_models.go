package models

import "strings"

type SentimentLabel string

const (
	LabelPositive SentimentLabel = "Positive"
	LabelNeutral  SentimentLabel = "Neutral"
	LabelNegative SentimentLabel = "Negative"
)

// SentimentLabels is the fixed display order used by summaries and exports.
var SentimentLabels = []SentimentLabel{LabelPositive, LabelNeutral, LabelNegative}

func (l SentimentLabel) Valid() bool {
	for _, label := range SentimentLabels {
		if l == label {
			return true
		}
	}
	return false
}

// ParseSentimentLabel matches name against the three labels, ignoring case
// and surrounding whitespace.
func ParseSentimentLabel(name string) (SentimentLabel, bool) {
	name = strings.TrimSpace(name)
	for _, label := range SentimentLabels {
		if strings.EqualFold(name, string(label)) {
			return label, true
		}
	}
	return "", false
}

type ClassifiedComment struct {
	Comment    string         `json:"comment"`
	Label      SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`

	// Unclassified marks records produced by the fallback policy rather than
	// by the model.
	Unclassified  bool   `json:"unclassified,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type SummaryEntry struct {
	Label      SentimentLabel `json:"sentiment"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

type SentimentSummary struct {
	Total        int            `json:"total"`
	Unclassified int            `json:"unclassified"`
	Entries      []SummaryEntry `json:"entries"`
}

// Entry returns the entry for label, if any record carried it.
func (s SentimentSummary) Entry(label SentimentLabel) (SummaryEntry, bool) {
	for _, e := range s.Entries {
		if e.Label == label {
			return e, true
		}
	}
	return SummaryEntry{}, false
}

func (s SentimentSummary) IsEmpty() bool {
	return s.Total == 0
}

type AnalysisResult struct {
	RunID   string              `json:"run_id"`
	VideoID string              `json:"video_id"`
	Records []ClassifiedComment `json:"records"`
	Summary SentimentSummary    `json:"summary"`
}
