package capability

import (
	"log/slog"
	"regexp"
)

var regionPrefix = regexp.MustCompile(`^[a-z]+\.`)

// Resolver maps model ids, including region-routed aliases, to capabilities.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver that reports unknown models to logger.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("system", "capability")}
}

// Resolve never fails. Lookup order is the exact id, then the id without
// its region prefix, then Default.
func (r *Resolver) Resolve(id string) Capability {
	if c, ok := Lookup(id); ok {
		return c
	}

	if prefix := regionPrefix.FindString(id); prefix != "" {
		if c, ok := Lookup(id[len(prefix):]); ok {
			c.ID = id
			return c
		}
	}

	r.logger.Warn("unregistered model, using conservative defaults", "model_id", id)
	return Default(id)
}
