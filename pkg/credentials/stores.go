package credentials

import "context"

// Static always returns the same credential. Used by jobs and tests.
type Static struct {
	cred Credential
}

func NewStatic(cred Credential) *Static {
	return &Static{cred: cred}
}

func (s *Static) Credential(context.Context) (Credential, error) {
	if s == nil || s.cred.Token == "" {
		return Credential{}, ErrMissing
	}
	return s.cred, nil
}

type ctxKey struct{}

// WithCredential stores a parsed credential on the request context.
func WithCredential(ctx context.Context, cred Credential) context.Context {
	return context.WithValue(ctx, ctxKey{}, cred)
}

// FromContext returns the credential attached by WithCredential.
func FromContext(ctx context.Context) (Credential, bool) {
	if ctx == nil {
		return Credential{}, false
	}
	cred, ok := ctx.Value(ctxKey{}).(Credential)
	return cred, ok && cred.Token != ""
}

// Request reads the credential attached to the request context.
type Request struct{}

func (Request) Credential(ctx context.Context) (Credential, error) {
	cred, ok := FromContext(ctx)
	if !ok {
		return Credential{}, ErrMissing
	}
	return cred, nil
}
