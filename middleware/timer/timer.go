package timer

import (
	"log"
	"net/http"
	"time"
)

// Middleware returns request-timing middleware that logs every handled
// request with its duration and status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		log.Printf("Request - Method:%s\tPath:%s\tStatus:%d\tDuration:%s\n",
			r.Method,
			r.URL.Path,
			recorder.status,
			time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
