package controller

import (
	"net/http"
	"net/http/pprof"
	"strings"
)

// PprofPrefix is where the server mounts the profiling endpoints.
const PprofPrefix = "/debug/pprof/"

// PprofMux returns an http.ServeMux with net/http/pprof handlers registered
// under prefix. pprof.Index only serves named profiles below /debug/pprof/, so
// prefix should normally be PprofPrefix.
func PprofMux(prefix string) *http.ServeMux {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	mux := http.NewServeMux()

	mux.HandleFunc(prefix, pprof.Index)
	mux.HandleFunc(prefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"profile", pprof.Profile)
	mux.HandleFunc(prefix+"symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"trace", pprof.Trace)

	return mux
}
