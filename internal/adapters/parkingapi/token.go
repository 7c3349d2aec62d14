package parkingapi

import "context"

// StaticToken implements ports.TokenProvider with a fixed bearer token, the
// common case when the platform shell injects the user's token at startup.
// An empty token means unauthenticated requests.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(_ context.Context) (string, error) {
	return string(t), nil
}
