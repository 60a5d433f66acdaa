package rest

import "net/http"

const redactedValue = "[REDACTED]"

// sensitiveHeaders lists request headers whose values never reach log
// output. Bearer tokens ride in Authorization, so debug dumps of a signed
// request would otherwise leak the live credential.
var sensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
}

// redactForDump returns a clone of req safe to pass to httputil.DumpRequest.
// The original request is left untouched.
func redactForDump(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	for _, name := range sensitiveHeaders {
		if clone.Header.Get(name) != "" {
			clone.Header.Set(name, redactedValue)
		}
	}
	return clone
}
