package health

import "context"

// EnginePinger checks backing search engine availability.
type EnginePinger interface {
	Ping(ctx context.Context) error
}
