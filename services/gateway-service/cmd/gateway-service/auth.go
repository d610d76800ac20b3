package main

import (
	"net/http"
	"strings"

	"github.com/citizengate/citizengate/libs/auth"
)

// requireAuth verifies the bearer token (RS256 via JWKS when the token names
// a key, HS256 otherwise) and forwards the verified identity as headers.
// Client-supplied identity headers are always stripped first: downstream
// services trust them precisely because only the gateway can set them.
func requireAuth(next http.Handler, jwtSecret string, jwksClient *auth.JWKSClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		var claims *auth.Claims
		var err error

		if jwksClient != nil {
			header, headerErr := auth.ParseHeader(token)
			if headerErr != nil {
				http.Error(w, "invalid token header", http.StatusUnauthorized)
				return
			}
			if header.Alg == "RS256" && header.Kid != "" {
				pub, keyErr := jwksClient.Get(header.Kid)
				if keyErr != nil {
					http.Error(w, "invalid token key", http.StatusUnauthorized)
					return
				}
				claims, err = auth.VerifyRS256(token, pub)
			} else {
				claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
			}
		} else {
			claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
		}
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-Organization-Id")
		r.Header.Del("X-Roles")
		r.Header.Set("X-User-Id", claims.Sub)
		if claims.OrgID != "" {
			r.Header.Set("X-Organization-Id", claims.OrgID)
		}
		if len(claims.Roles) > 0 {
			r.Header.Set("X-Roles", strings.Join(claims.Roles, ","))
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, role := range strings.Split(r.Header.Get("X-Roles"), ",") {
			if _, ok := allowed[strings.TrimSpace(role)]; ok {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

// allowPublicReads routes safe methods straight through and everything else
// into the protected handler.
func allowPublicReads(public, protected http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			public.ServeHTTP(w, r)
		default:
			protected.ServeHTTP(w, r)
		}
	})
}
