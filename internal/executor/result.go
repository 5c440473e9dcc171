package executor

import "time"

// CountSuccessful returns the number of results without an error
func CountSuccessful[T any](results []Result[T]) int {
	count := 0
	for _, r := range results {
		if r.Error == nil {
			count++
		}
	}
	return count
}

// Summary describes a batch of results
type Summary struct {
	Total       int           `json:"total" yaml:"total"`
	Successful  int           `json:"successful" yaml:"successful"`
	Failed      int           `json:"failed" yaml:"failed"`
	MaxDuration time.Duration `json:"maxDuration" yaml:"maxDuration"`
}

// Summarize creates a summary of the results
func Summarize[T any](results []Result[T]) Summary {
	s := Summary{
		Total:      len(results),
		Successful: CountSuccessful(results),
	}
	s.Failed = s.Total - s.Successful
	for _, r := range results {
		if r.Duration > s.MaxDuration {
			s.MaxDuration = r.Duration
		}
	}
	return s
}
