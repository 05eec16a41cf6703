package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spacesedan/ytsentiment/internal/models"
)

const CSV_FILE_NAME = "youtube_sentiment_results.csv"

var csvHeader = []string{"Comment", "Sentiment", "Confidence (%)"}

// WriteCSV writes one row per record under a Comment, Sentiment,
// Confidence (%) header.
func WriteCSV(w io.Writer, records []models.ClassifiedComment) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range records {
		row := []string{r.Comment, string(r.Label), FormatConfidence(r.Confidence)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func CSVBytes(records []models.ClassifiedComment) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatConfidence prints the shortest decimal form, e.g. 98.77 or 50.
func FormatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SummaryLines renders one bullet per summary entry.
func SummaryLines(summary models.SentimentSummary) []string {
	lines := make([]string, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		lines = append(lines, fmt.Sprintf("- %s: %d comments (%s%%)",
			e.Label, e.Count, FormatConfidence(e.Percentage)))
	}
	return lines
}

// UnclassifiedNote explains how many Neutral comments are fallbacks rather
// than model output. It is empty when every comment was classified.
func UnclassifiedNote(summary models.SentimentSummary) string {
	if summary.Unclassified == 0 {
		return ""
	}
	neutral, _ := summary.Entry(models.LabelNeutral)
	return fmt.Sprintf("%d of %d Neutral comments could not be classified and default to Neutral.",
		summary.Unclassified, neutral.Count)
}
