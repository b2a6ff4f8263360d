package dictionary

import "context"

//go:generate mockgen -source=fetcher.go -destination=../mocks/dictionary/mock_fetcher.go -package=mock_dictionary

// Fetcher retrieves the analysis of a single normalized word from the upstream service.
// found is false when the service does not recognize the word.
type Fetcher interface {
	Fetch(ctx context.Context, word string) (analysis string, found bool, err error)
}
