package repositories

import "context"

// Translator is a remote translation service without model involvement
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}
