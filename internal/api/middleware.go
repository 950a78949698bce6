package api

import (
	"encoding/json"
	"net/http"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
)

const tenantHeader = "X-Tenant-ID"

// TenantMiddleware resolves the calling tenant from the X-Tenant-ID
// header and stores it on the request context. Requests without a
// tenant are rejected before any handler runs.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(tenantHeader)
		if tenantID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: "X-Tenant-ID header is required"})
			return
		}

		ctx := observability.ContextWithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantID(r *http.Request) string {
	return observability.TenantIDFromContext(r.Context())
}
