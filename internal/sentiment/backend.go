package sentiment

// Prediction is the top class a backend produced for one input.
type Prediction struct {
	Label string
	Score float64
}

// Backend runs a loaded model. Predict returns one Prediction per input, in
// input order. Implementations must be safe for concurrent Predict calls once
// constructed.
type Backend interface {
	Predict(texts []string) ([]Prediction, error)
	Close() error
}
