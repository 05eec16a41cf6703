package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/ytsentiment/internal/models"
)

func TestCSVBytes(t *testing.T) {
	records := []models.ClassifiedComment{
		{Comment: "Great video, thanks!", Label: models.LabelPositive, Confidence: 98.77},
		{Comment: "line one\nline \"two\"", Label: models.LabelNeutral, Confidence: 0, Unclassified: true},
		{Comment: "日本語のコメント 👎", Label: models.LabelNegative, Confidence: 70.5},
	}

	data, err := CSVBytes(records)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Comment", "Sentiment", "Confidence (%)"},
		{"Great video, thanks!", "Positive", "98.77"},
		{"line one\nline \"two\"", "Neutral", "0"},
		{"日本語のコメント 👎", "Negative", "70.5"},
	}, rows)
}

func TestCSVBytes_Empty(t *testing.T) {
	data, err := CSVBytes(nil)
	require.NoError(t, err)
	assert.Equal(t, "Comment,Sentiment,Confidence (%)\n", string(data))
}

func TestSummaryLines(t *testing.T) {
	lines := SummaryLines(models.SentimentSummary{
		Total: 4,
		Entries: []models.SummaryEntry{
			{Label: models.LabelPositive, Count: 2, Percentage: 50},
			{Label: models.LabelNeutral, Count: 1, Percentage: 25},
			{Label: models.LabelNegative, Count: 1, Percentage: 25},
		},
	})

	assert.Equal(t, []string{
		"- Positive: 2 comments (50%)",
		"- Neutral: 1 comments (25%)",
		"- Negative: 1 comments (25%)",
	}, lines)
}

func TestUnclassifiedNote(t *testing.T) {
	summary := models.SentimentSummary{
		Total:        4,
		Unclassified: 2,
		Entries: []models.SummaryEntry{
			{Label: models.LabelPositive, Count: 1, Percentage: 25},
			{Label: models.LabelNeutral, Count: 3, Percentage: 75},
		},
	}
	assert.Equal(t, "2 of 3 Neutral comments could not be classified and default to Neutral.",
		UnclassifiedNote(summary))

	summary.Unclassified = 0
	assert.Empty(t, UnclassifiedNote(summary))
}
