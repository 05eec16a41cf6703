package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)

	// the renderer's smartypants output breaks VADER's negation lexicon
	typographicQuotes = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := htmlTagPattern.ReplaceAllString(string(output), " ")
	plainText = typographicQuotes.Replace(html.UnescapeString(plainText))
	plainText = strings.Join(strings.Fields(RemoveLinks(plainText)), " ")

	return plainText
}

// VaderBackend is a lexicon backend for environments without ONNX Runtime.
// Its class names are registered under MODEL_VADER.
type VaderBackend struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderBackend() *VaderBackend {
	return &VaderBackend{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores returns VADER's proportions for the plain text of a
// markdown comment.
func (v *VaderBackend) PolarityScores(text string) govader.Sentiment {
	return v.analyzer.PolarityScores(ConvertMarkdownToText(text))
}

// Predict picks the largest of the negative, neutral and positive proportions
// and reports it as the class probability. Ties go to neutral, then positive.
func (v *VaderBackend) Predict(texts []string) ([]Prediction, error) {
	predictions := make([]Prediction, 0, len(texts))
	for _, text := range texts {
		scores := v.PolarityScores(text)

		best := Prediction{Label: "neutral", Score: scores.Neutral}
		if scores.Positive > best.Score {
			best = Prediction{Label: "positive", Score: scores.Positive}
		}
		if scores.Negative > best.Score {
			best = Prediction{Label: "negative", Score: scores.Negative}
		}
		predictions = append(predictions, best)
	}
	return predictions, nil
}

func (v *VaderBackend) Close() error {
	return nil
}
