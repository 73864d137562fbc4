package results

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapid/pkg/pagination"
)

// System is the contract of the result store.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error)
	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Create(ctx context.Context, cmd CreateCommand) (*Record, error)
	Verify(ctx context.Context, id uuid.UUID, cmd VerifyCommand) (*Record, error)
	Override(ctx context.Context, id uuid.UUID, cmd OverrideCommand) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
