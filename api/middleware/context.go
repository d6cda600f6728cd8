package middleware

import "context"

type principalKey struct{}

// principal is the authenticated caller placed on the context by AdminAuth.
type principal struct {
	subject string
	role    string
}

func SubjectFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p.subject
}

func RoleFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p.role
}

// WithSubject stores the authenticated caller; tests use it to fake a login.
func WithSubject(ctx context.Context, subject, role string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal{subject: subject, role: role})
}
