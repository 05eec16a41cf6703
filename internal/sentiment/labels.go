package sentiment

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spacesedan/ytsentiment/internal/models"
)

const (
	MODEL_TWITTER_ROBERTA        = "cardiffnlp/twitter-roberta-base-sentiment"
	MODEL_TWITTER_ROBERTA_LATEST = "cardiffnlp/twitter-roberta-base-sentiment-latest"
	MODEL_VADER                  = "vader"
)

var (
	ErrUnknownModel      = errors.New("no label table registered for model")
	ErrInvalidLabelTable = errors.New("invalid label table")
)

// LabelTable maps a model's native class names to domain labels. The class
// order is a property of each pretrained model and must match its config.
type LabelTable map[string]models.SentimentLabel

var (
	labelTablesMu sync.RWMutex
	labelTables   = map[string]LabelTable{
		MODEL_TWITTER_ROBERTA: {
			"LABEL_0": models.LabelNegative,
			"LABEL_1": models.LabelNeutral,
			"LABEL_2": models.LabelPositive,
		},
		MODEL_TWITTER_ROBERTA_LATEST: {
			"negative": models.LabelNegative,
			"neutral":  models.LabelNeutral,
			"positive": models.LabelPositive,
		},
		MODEL_VADER: {
			"negative": models.LabelNegative,
			"neutral":  models.LabelNeutral,
			"positive": models.LabelPositive,
		},
	}
)

// LabelTableFor returns the label table registered for model.
func LabelTableFor(model string) (LabelTable, error) {
	labelTablesMu.RLock()
	defer labelTablesMu.RUnlock()

	table, ok := labelTables[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return table, nil
}

// RegisterLabelTable adds or replaces the table for model. Every class must
// map to one of the three domain labels, and each label must be covered.
func RegisterLabelTable(model string, table LabelTable) error {
	seen := make(map[models.SentimentLabel]bool, len(models.SentimentLabels))
	for class, label := range table {
		if !label.Valid() {
			return fmt.Errorf("%w: %s maps %q to %q", ErrInvalidLabelTable, model, class, label)
		}
		seen[label] = true
	}
	for _, want := range models.SentimentLabels {
		if !seen[want] {
			return fmt.Errorf("%w: %s does not cover %s", ErrInvalidLabelTable, model, want)
		}
	}

	copied := make(LabelTable, len(table))
	for k, v := range table {
		copied[k] = v
	}

	labelTablesMu.Lock()
	labelTables[model] = copied
	labelTablesMu.Unlock()
	return nil
}

// ParseLabelTable reads "class=Label" pairs separated by commas, e.g.
// "LABEL_0=Negative,LABEL_1=Neutral,LABEL_2=Positive". Label names are case
// insensitive.
func ParseLabelTable(raw string) (LabelTable, error) {
	table := LabelTable{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		class, name, ok := strings.Cut(pair, "=")
		class = strings.TrimSpace(class)
		if !ok || class == "" {
			return nil, fmt.Errorf("%w: malformed pair %q", ErrInvalidLabelTable, pair)
		}
		label, ok := models.ParseSentimentLabel(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown label %q", ErrInvalidLabelTable, strings.TrimSpace(name))
		}
		table[class] = label
	}
	return table, nil
}
