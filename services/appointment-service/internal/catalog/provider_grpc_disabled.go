//go:build !protogen

package catalog

// NewGRPCProvider is a no-op without generated protos; callers fall back to
// the HTTP provider. Build with -tags protogen after `make proto` to enable.
func NewGRPCProvider(_ string) (Provider, error) {
	return nil, nil
}
