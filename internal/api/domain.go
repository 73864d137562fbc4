package api

import (
	"github.com/JaimeStill/rapid/internal/results"
	"github.com/JaimeStill/rapid/pkg/storage"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Results   results.System
	Documents storage.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Results: results.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		),
		Documents: runtime.Storage,
	}
}
