// Package routes declares route groups and registers them on a ServeMux.
package routes

import "net/http"

// Route binds a method and a pattern relative to its group.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
