package handlers

import (
	"net/http"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/example/views"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

const badCredentials = "These credentials do not match our records."

type Auth struct {
	db       *query.DB
	users    *Users
	accounts *UserRepository
}

func NewAuth(db *query.DB, users *Users) *Auth {
	return &Auth{
		db:       db,
		users:    users,
		accounts: model.NewRepository[models.User](db),
	}
}

func (h *Auth) Routes(r storefront.Router) {
	guest := middlewares.Guest(h.users, "/")

	r.GET("/login", h.showLogin, guest)
	r.POST("/login", h.login, guest)
	r.GET("/logout", h.logout)
	r.GET("/register", h.showRegister, guest)
	r.POST("/register", h.register, guest)
}

func (h *Auth) showLogin(r *storefront.Request) (*storefront.Response, error) {
	return views.Render(r, http.StatusOK, "login.html", "Log in", nil)
}

func (h *Auth) login(r *storefront.Request) (*storefront.Response, error) {
	_, err := validate(r, h.db,
		validation.Field("email", validation.Rule().Required().Email()),
		validation.Field("password", validation.Rule().Required()),
	)
	if err != nil {
		return nil, err
	}

	guard := h.users.Guard(r)
	ok, err := guard.Attempt(r.Context(), r.String("email"), r.String("password"))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validation.NewValidationError(map[string]string{"email": badCredentials})
	}

	if r.PrefersHTML() {
		return storefront.Redirect("/"), nil
	}
	u, _, err := guard.User(r.Context())
	if err != nil {
		return nil, err
	}
	return storefront.JSON(http.StatusOK, map[string]any{"user": u})
}

func (h *Auth) logout(r *storefront.Request) (*storefront.Response, error) {
	if err := h.users.Guard(r).Logout(); err != nil {
		return nil, err
	}
	r.Flash(views.StatusKey, "You have been logged out.")
	return storefront.Redirect("/"), nil
}

func (h *Auth) showRegister(r *storefront.Request) (*storefront.Response, error) {
	return views.Render(r, http.StatusOK, "register.html", "Register", nil)
}

func (h *Auth) register(r *storefront.Request) (*storefront.Response, error) {
	input, err := validate(r, h.db,
		validation.Field("name", validation.Rule().Required().MinLength(2).MaxLength(255)),
		validation.Field("email", validation.Rule().Required().Email().MaxLength(319).Unique("users", "email")),
		validation.Field("password", validation.Rule().Required().MinLength(8).Confirmed("password_confirmation")),
	)
	if err != nil {
		return nil, err
	}

	hash, err := h.users.Hasher().Hash(r.String("password"))
	if err != nil {
		return nil, err
	}
	roleID, err := models.RoleID(r.Context(), h.db, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	u, err := h.accounts.Create(r.Context(), model.Row{
		"name":     input["name"],
		"email":    input["email"],
		"password": hash,
		"role_id":  roleID,
	})
	if err != nil {
		return nil, err
	}
	if err := h.users.Guard(r).Login(r.Context(), u); err != nil {
		return nil, err
	}

	if r.PrefersHTML() {
		return storefront.Redirect("/"), nil
	}
	return storefront.JSON(http.StatusCreated, map[string]any{"user": u})
}
