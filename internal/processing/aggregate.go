package processing

import (
	"github.com/spacesedan/ytsentiment/internal/models"
	"github.com/spacesedan/ytsentiment/internal/sentiment"
)

// Summarize counts records per label. Entries follow models.SentimentLabels
// order and only include labels that occur, so the result does not depend on
// record order. An empty input yields an empty summary.
func Summarize(records []models.ClassifiedComment) models.SentimentSummary {
	summary := models.SentimentSummary{Entries: []models.SummaryEntry{}}
	if len(records) == 0 {
		return summary
	}

	counts := make(map[models.SentimentLabel]int, len(models.SentimentLabels))
	for _, record := range records {
		counts[record.Label]++
		if record.Unclassified {
			summary.Unclassified++
		}
	}
	summary.Total = len(records)

	for _, label := range models.SentimentLabels {
		if count, ok := counts[label]; ok {
			summary.Entries = append(summary.Entries, entry(label, count, summary.Total))
		}
	}

	return summary
}

func entry(label models.SentimentLabel, count, total int) models.SummaryEntry {
	return models.SummaryEntry{
		Label:      label,
		Count:      count,
		Percentage: sentiment.RoundPercent(float64(count) / float64(total) * 100),
	}
}
