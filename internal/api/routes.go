package api

import (
	"net/http"

	"github.com/JaimeStill/rapid/internal/results"
	"github.com/JaimeStill/rapid/pkg/openapi"
	"github.com/JaimeStill/rapid/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	spec := openapi.NewSpec(
		"Rapid Review API",
		runtime.Version,
		"Oversight of automated document review results.",
	)
	spec.AddServer(runtime.BasePath)
	spec.AddSchemas(results.Schemas())
	spec.AddPaths(results.Paths())

	groups := []routes.Group{domain.Results.Handler().Routes()}

	if domain.Documents != nil {
		groups = append(groups, newDocumentHandler(domain.Documents, runtime.Logger).routes())
		spec.AddPaths(documentPaths())
	}

	routes.Register(mux, groups...)

	serve, err := spec.Handler()
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", serve)

	return nil
}
