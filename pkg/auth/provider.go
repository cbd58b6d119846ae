package auth

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/model"
)

// UserProvider loads users for a Manager.
type UserProvider[U any] interface {
	RetrieveByID(ctx context.Context, id int64) (U, bool, error)
	// RetrieveByIdentifier finds the user a login form refers to, e.g. by email.
	RetrieveByIdentifier(ctx context.Context, identifier string) (U, bool, error)
	Password(u U) string
	ID(u U) int64
}

// authenticatable is a model whose password hash can be read.
type authenticatable[T any] interface {
	*T
	model.Record
	PasswordHash() string
}

// ModelProvider serves users from a model repository.
type ModelProvider[T any, PT authenticatable[T]] struct {
	repo   *model.Repository[T, PT]
	column string
}

// NewModelProvider looks users up by id and by identifierColumn.
//
//	users := auth.NewModelProvider(model.NewRepository[User](db), "email")
func NewModelProvider[T any, PT authenticatable[T]](repo *model.Repository[T, PT], identifierColumn string) *ModelProvider[T, PT] {
	return &ModelProvider[T, PT]{repo: repo, column: identifierColumn}
}

func (p *ModelProvider[T, PT]) RetrieveByID(ctx context.Context, id int64) (*T, bool, error) {
	return p.repo.Find(ctx, id)
}

func (p *ModelProvider[T, PT]) RetrieveByIdentifier(ctx context.Context, identifier string) (*T, bool, error) {
	return p.repo.Where(p.column, "=", identifier).First(ctx)
}

func (p *ModelProvider[T, PT]) Password(u *T) string { return PT(u).PasswordHash() }

func (p *ModelProvider[T, PT]) ID(u *T) int64 { return model.Key(PT(u)) }
