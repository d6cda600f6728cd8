// Package splitpay drives an investment that exceeds the per-transaction
// gateway limit as a sequence of individually verified payments.
package splitpay

import "errors"

var (
	ErrNonPositiveTotal = errors.New("total must be positive")
	ErrNonPositiveCap   = errors.New("per-transaction cap must be positive")
)

// Split chunks total into amounts no larger than limit. Every chunk except
// possibly the last equals limit, and the chunks sum to total.
func Split(total, limit int64) ([]int64, error) {
	if total <= 0 {
		return nil, ErrNonPositiveTotal
	}
	if limit <= 0 {
		return nil, ErrNonPositiveCap
	}
	chunks := make([]int64, 0, (total+limit-1)/limit)
	for remaining := total; remaining > 0; {
		chunk := min(remaining, limit)
		chunks = append(chunks, chunk)
		remaining -= chunk
	}
	return chunks, nil
}
