package grpcx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// RequestIDMetadataKey is the gRPC metadata key used to propagate request
// ids between services. gRPC metadata keys are lowercased on the wire.
const RequestIDMetadataKey = "x-request-id"

type ctxKey struct{}

// RequestIDFromContext returns the request id attached by WithRequestID,
// or "" if none was attached.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// NewRequestID returns 16 random bytes hex-encoded.
func NewRequestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
