package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux registers the process-level routes. Feature modules add their own.
func NewMux(reader *sql.DB, live http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, reader)
	mux.HandleFunc("GET /hello", handleHello)
	if live != nil {
		mux.Handle("GET /ws", live)
	}
	return mux
}
