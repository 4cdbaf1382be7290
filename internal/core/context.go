package core

import "context"

type contextKey struct{}

// RequestMeta identifies the caller of an operation for audit events.
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// ContextWithRequestMeta attaches caller metadata to ctx.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, contextKey{}, meta)
}

// RequestMetaFromContext returns the metadata stored by ContextWithRequestMeta.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(contextKey{}).(RequestMeta)
	return meta
}
