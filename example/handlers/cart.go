package handlers

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/example/views"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

// CartKey is the session key holding product id -> quantity.
const CartKey = "cart"

// Cart maps product ids to quantities. Keys are strings so the cart
// survives a JSON backed session store unchanged.
type Cart map[string]int64

// CartOf reads the cart from the session.
func CartOf(sess *session.Session) Cart {
	cart := Cart{}
	if sess == nil {
		return cart
	}
	v, _ := sess.Get(CartKey)
	switch items := v.(type) {
	case Cart:
		maps.Copy(cart, items)
	case map[string]int64:
		maps.Copy(cart, items)
	case map[string]any:
		for id, qty := range items {
			if n, ok := toInt64(qty); ok {
				cart[id] = n
			}
		}
	}
	return cart
}

// IDs returns the product ids in the cart, sorted.
func (c Cart) IDs() []any {
	keys := slices.Sorted(maps.Keys(c))
	ids := make([]any, 0, len(keys))
	for _, k := range keys {
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lines loads the cart's products priced at their current price.
func (c Cart) Lines(ctx context.Context, products *ProductRepository) ([]models.OrderLine, float64, error) {
	if len(c) == 0 {
		return []models.OrderLine{}, 0, nil
	}
	found, err := products.Query().WhereIn("id", c.IDs()...).OrderBy("id", "asc").Get(ctx)
	if err != nil {
		return nil, 0, err
	}
	lines := make([]models.OrderLine, 0, len(found))
	var total float64
	for _, p := range found {
		qty := c[strconv.FormatInt(p.ID, 10)]
		lines = append(lines, models.OrderLine{Product: p, Quantity: qty, UnitPrice: p.Price})
		total += p.Price * float64(qty)
	}
	return lines, total, nil
}

type Carts struct {
	db       *query.DB
	users    *Users
	products *ProductRepository
}

func NewCarts(db *query.DB, users *Users) *Carts {
	return &Carts{
		db:       db,
		users:    users,
		products: model.NewRepository[models.Product](db),
	}
}

func (h *Carts) Routes(r storefront.Router) {
	r.Route("/cart", func(r storefront.Router) {
		r.Use(middlewares.RequireAuth(h.users, middlewares.DefaultLoginPath))
		r.GET("/", h.show)
		r.POST("/add", h.add)
	})
}

func (h *Carts) show(r *storefront.Request) (*storefront.Response, error) {
	lines, total, err := CartOf(r.Session()).Lines(r.Context(), h.products)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "cart.html", "Cart", map[string]any{
		"items": lines,
		"total": total,
	})
}

// productExists goes through the repository so trashed products count as
// missing.
func (h *Carts) productExists(ctx context.Context, value any) (string, error) {
	id, _ := toInt64(value)
	_, found, err := h.products.Find(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "This product does not exist", nil
	}
	return "", nil
}

func (h *Carts) add(r *storefront.Request) (*storefront.Response, error) {
	_, err := validate(r, h.db,
		validation.Field("product_id", validation.Rule().Required().Integer().Custom(h.productExists)),
		validation.Field("quantity", validation.Rule().Required().Integer().MinValue(1)),
	)
	if err != nil {
		return nil, err
	}

	id := strconv.FormatInt(int64Input(r, "product_id"), 10)
	qty := int64Input(r, "quantity")

	cart := CartOf(r.Session())
	cart[id] += qty
	r.Session().Put(CartKey, cart)

	if r.PrefersHTML() {
		r.Flash(views.StatusKey, "Product added to cart")
		return storefront.Redirect("/cart"), nil
	}
	return storefront.JSON(http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Product added to cart",
		"quantity": cart[id],
		"cart":     cart,
	})
}
