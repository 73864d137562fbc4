// Package openapi builds and serves an OpenAPI 3.1 description of an HTTP
// module.
package openapi

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Spec is an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec with the shared error responses registered.
func NewSpec(title, version, description string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       title,
			Version:     version,
			Description: description,
		},
		Paths: make(map[string]*PathItem),
		Components: &Components{
			Schemas: map[string]*Schema{
				"Error": {
					Type:       "object",
					Properties: map[string]*Schema{"error": {Type: "string"}},
				},
			},
			Responses: map[string]*Response{
				"BadRequest": errorResponse("Invalid request"),
				"NotFound":   errorResponse("Resource not found"),
				"Conflict":   errorResponse("Resource conflict"),
			},
		},
	}
}

// AddServer appends a server URL.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddPaths merges path items keyed by path template.
func (s *Spec) AddPaths(paths map[string]*PathItem) {
	maps.Copy(s.Paths, paths)
}

// AddSchemas merges component schemas.
func (s *Spec) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(s.Components.Schemas, schemas)
}

// Handler serializes the spec once and serves the bytes.
func (s *Spec) Handler() (http.HandlerFunc, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}, nil
}

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}
