package structures

import "net/http"

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

// Route pairs a ServeMux pattern (including the method prefix) with its
// handler.
type Route struct {
	Pattern string
	Handler http.Handler
}
