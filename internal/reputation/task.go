package reputation

import (
	"context"

	"github.com/evcraddock/qa-forum/internal/question"
)

// Perform runs one recalculation: it calls calc.Calculate exactly once with
// q and returns its error unchanged. Retries are the caller's concern.
func Perform(ctx context.Context, calc Calculator, q *question.Question) error {
	return calc.Calculate(ctx, q)
}
