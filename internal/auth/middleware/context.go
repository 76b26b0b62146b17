package auth

import "context"

type ctxKey string

const (
	ctxKeyEmail ctxKey = "email"
	ctxKeySID   ctxKey = "sid"
)

func WithIdentity(ctx context.Context, email, sessionID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyEmail, email)
	return context.WithValue(ctx, ctxKeySID, sessionID)
}

func EmailFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyEmail).(string); ok {
		return s
	}
	return ""
}

func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySID).(string); ok {
		return s
	}
	return ""
}
