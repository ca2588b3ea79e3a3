package handler

import (
	"errors"
	"fmt"

	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/value"
)

// NoDataResponse is returned when a request contains no tokens to sort.
const NoDataResponse = "Error: No valid data to sort"

// ParseFunc turns request text into values.
type ParseFunc func(text string) []value.Value

// SortFunc orders values. When it cannot, it returns the input unchanged
// with a non-nil error describing why.
type SortFunc func(values []value.Value) ([]value.Value, error)

// Ascending sorts values in ascending order.
func Ascending(values []value.Value) ([]value.Value, error) {
	return value.Sort(values, false)
}

// Descending sorts values in descending order.
func Descending(values []value.Value) ([]value.Value, error) {
	return value.Sort(values, true)
}

type sortingHandler struct {
	parse ParseFunc
	sort  SortFunc
	log   logger.Logger
}

// Sorting composes parse and sort into a Handler. Requests with no tokens
// get NoDataResponse; sequences that cannot be ordered are echoed back in
// their original order and a warning is logged. Panics raised by parse or
// sort are converted into an "Error processing data" response.
//
// Parameters:
//   - parse: Tokenizer for request text
//   - sort: Ordering applied to the parsed values
//   - log: Logger for sort warnings
//
// Returns:
//   - A Handler producing space-separated sorted values
func Sorting(parse ParseFunc, sort SortFunc, log logger.Logger) Handler {
	return &sortingHandler{parse: parse, sort: sort, log: log}
}

// DefaultSorting is Sorting with value.Parse and Ascending.
func DefaultSorting(log logger.Logger) Handler {
	return Sorting(value.Parse, Ascending, log)
}

func (h *sortingHandler) Process(request string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("sorting handler panicked", logger.F("panic", fmt.Sprint(r)))
			response = fmt.Sprintf("Error processing data: %v", r)
		}
	}()

	values := h.parse(request)
	if len(values) == 0 {
		return NoDataResponse
	}

	sorted, err := h.sort(values)
	if err != nil {
		if errors.Is(err, value.ErrIncomparable) {
			h.log.Warn("unable to sort mixed incompatible types", logger.Err(err), logger.F("count", len(values)))
		} else {
			h.log.Warn("sort failed, returning input order", logger.Err(err))
		}

		if sorted == nil {
			sorted = values
		}
	}

	return value.Join(sorted)
}
