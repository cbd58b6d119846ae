package models

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
)

type Role struct {
	model.Base
	Name string `json:"name"`
}

func (Role) Meta() model.Meta { return model.Meta{Table: "roles"} }

func (r Role) Attributes() map[string]any {
	return map[string]any{"name": r.Name}
}

func (r *Role) Fill(row model.Row) error {
	r.Name = model.String(row, "name")
	return nil
}

// Role names.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	model.Base
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
	RoleID   int64  `json:"role_id"`
}

func (User) Meta() model.Meta { return model.Meta{Table: "users", Timestamps: true} }

func (u User) Attributes() map[string]any {
	return map[string]any{
		"name":     u.Name,
		"email":    u.Email,
		"password": u.Password,
		"role_id":  u.RoleID,
	}
}

func (u *User) Fill(row model.Row) error {
	u.Name = model.String(row, "name")
	u.Email = model.String(row, "email")
	u.Password = model.String(row, "password")
	u.RoleID = model.Int64(row, "role_id")
	return nil
}

// PasswordHash lets auth.ModelProvider read the stored hash.
func (u *User) PasswordHash() string { return u.Password }

func (u *User) Role(ctx context.Context, db *query.DB) (*Role, bool, error) {
	return model.BelongsTo[Role](ctx, db, u, "role_id")
}

func (u *User) Orders(ctx context.Context, db *query.DB) ([]*Order, error) {
	return model.HasManyQuery[Order](db, u, "user_id").OrderBy("id", "desc").Get(ctx)
}

// RoleID returns the id of the role called name.
func RoleID(ctx context.Context, db *query.DB, name string) (int64, error) {
	role, ok, err := model.NewRepository[Role](db).Where("name", "=", name).First(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnknownRole
	}
	return role.ID, nil
}
