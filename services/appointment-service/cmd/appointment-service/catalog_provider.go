package main

import (
	"log/slog"

	"github.com/citizengate/citizengate/libs/config"
	"github.com/citizengate/citizengate/services/appointment-service/internal/catalog"
)

// newCatalogProvider prefers the directory gRPC endpoint when it is both
// configured and compiled in (protogen builds); otherwise it talks HTTP.
func newCatalogProvider(logger *slog.Logger) catalog.Provider {
	if addr := config.String("DIRECTORY_GRPC_ADDR", ""); addr != "" {
		p, err := catalog.NewGRPCProvider(addr)
		if err != nil {
			logger.Error("directory grpc init failed; falling back to http", "err", err)
		} else if p != nil {
			return p
		}
	}
	return catalog.NewHTTPProvider(config.String("DIRECTORY_HTTP_URL", "http://localhost:8081"))
}
