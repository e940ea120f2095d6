package testhelpers

import (
	"net/http"
	"sync/atomic"
)

// RespondWithMultiple plays the given handlers in order, one per request,
// and keeps repeating the last one once the script runs out. Useful for
// scripting a flaky upstream: refuse, refuse, recover.
func RespondWithMultiple(handlers ...http.HandlerFunc) http.HandlerFunc {
	if len(handlers) == 0 {
		return func(http.ResponseWriter, *http.Request) {}
	}

	var next int64
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&next, 1) - 1
		if n >= int64(len(handlers)) {
			n = int64(len(handlers)) - 1
		}
		handlers[n](w, r)
	}
}
