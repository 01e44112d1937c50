package graph

import (
	"errors"
	"fmt"
)

// Stage errors. Each kind carries distinct handling: validation and query
// errors are never retried, store/index errors are fatal at initialization,
// and analysis errors end the run. Callers classify with errors.Is.
var (
	// ErrValidation indicates an empty or whitespace-only question.
	ErrValidation = errors.New("question must not be empty")

	// ErrStoreUnavailable indicates the document store could not be reached,
	// including after retries were exhausted.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrIndexNotFound indicates the target index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrQuery indicates the store rejected the query as malformed.
	ErrQuery = errors.New("malformed query")

	// ErrInsufficientContext indicates the rendered context was too short
	// to attempt analysis.
	ErrInsufficientContext = errors.New("insufficient context for analysis")

	// ErrAnalysis indicates the model call failed or returned an
	// unrecognized response shape.
	ErrAnalysis = errors.New("analysis failed")
)

// UserMessage maps a workflow error onto the message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Питання не може бути порожнім."
	case errors.Is(err, ErrIndexNotFound):
		return "Індекс митних декларацій не знайдено. Спершу завантажте дані."
	case errors.Is(err, ErrStoreUnavailable):
		return "Сховище даних недоступне. Спробуйте пізніше."
	case errors.Is(err, ErrQuery):
		return "Не вдалося сформувати пошуковий запит."
	case errors.Is(err, ErrInsufficientContext):
		return "Знайдених даних замало для аналізу."
	case errors.Is(err, ErrAnalysis):
		return "Не вдалося проаналізувати дані. Спробуйте пізніше."
	default:
		return fmt.Sprintf("Сталася помилка: %v", err)
	}
}
