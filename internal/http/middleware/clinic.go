package middleware

import (
	"net/http"
	"strconv"

	"github.com/medidesk/medidesk-platform/internal/tenancy"
)

// ClinicHeader reads the X-Clinic-Id header and stores the clinic id in the
// request context. The header is optional; an unparsable value is a 400.
func ClinicHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Clinic-Id")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		clinicID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || clinicID <= 0 {
			http.Error(w, `{"error":"invalid X-Clinic-Id header"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithClinicID(r.Context(), clinicID)))
	})
}
