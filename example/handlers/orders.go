package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

// VATRate is included in every shelf price.
const VATRate = 0.21

const orderNotFound = "This order does not exist."

type Orders struct {
	db       *query.DB
	users    *Users
	orders   *OrderRepository
	products *ProductRepository
}

func NewOrders(db *query.DB, users *Users) *Orders {
	return &Orders{
		db:       db,
		users:    users,
		orders:   model.NewRepository[models.Order](db),
		products: model.NewRepository[models.Product](db),
	}
}

func (h *Orders) Routes(r storefront.Router) {
	r.Group(func(r storefront.Router) {
		r.Use(middlewares.RequireAuth(h.users, middlewares.DefaultLoginPath))
		r.GET("/checkout", h.checkout)
		r.GET("/orders", h.index)
		r.POST("/order", h.store)
		r.GET("/order/{id}", h.show)
	})
}

func (h *Orders) checkout(r *storefront.Request) (*storefront.Response, error) {
	cart := CartOf(r.Session())
	if len(cart) == 0 {
		return storefront.Redirect("/cart"), nil
	}
	lines, total, err := cart.Lines(r.Context(), h.products)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "cart.html", "Checkout", map[string]any{
		"items": lines,
		"total": total,
		"tax":   taxOf(total),
	})
}

func (h *Orders) index(r *storefront.Request) (*storefront.Response, error) {
	u, err := currentUser(r, h.users)
	if err != nil {
		return nil, err
	}
	orders, err := u.Orders(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "orders.html", "Orders", map[string]any{"orders": orders})
}

// store turns the cart into an order. The order, its lines and the stock
// changes are written in one transaction.
func (h *Orders) store(r *storefront.Request) (*storefront.Response, error) {
	u, err := currentUser(r, h.users)
	if err != nil {
		return nil, err
	}
	cart := CartOf(r.Session())
	if len(cart) == 0 {
		return nil, validation.NewValidationError(map[string]string{"cart": "The cart is empty."})
	}

	var order *models.Order
	err = h.db.WithTx(r.Context(), func(tx *query.DB) error {
		lines, total, err := cart.Lines(r.Context(), h.products.WithDB(tx))
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return validation.NewValidationError(map[string]string{"cart": "The cart is empty."})
		}

		order = &models.Order{
			UserID:        u.ID,
			Status:        models.StatusPending,
			TotalProducts: total,
			TotalTax:      taxOf(total),
		}
		if err := h.orders.WithDB(tx).Save(r.Context(), order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := line.Product.DecrementStock(r.Context(), tx, line.Quantity); err != nil {
				if errors.Is(err, models.ErrOutOfStock) {
					return validation.NewValidationError(map[string]string{
						"cart": fmt.Sprintf("Only %d of %s left in stock.", line.Product.StockQuantity, line.Product.Name),
					})
				}
				return err
			}
			if err := order.AttachProduct(r.Context(), tx, line.Product, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Session().Delete(CartKey)

	if r.PrefersHTML() {
		return storefront.Redirect(fmt.Sprintf("/order/%d", order.ID)), nil
	}
	return storefront.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order created successfully",
		"order":   order,
	})
}

func (h *Orders) show(r *storefront.Request) (*storefront.Response, error) {
	u, err := currentUser(r, h.users)
	if err != nil {
		return nil, err
	}
	id, ok := storefront.Param[int64](r, "id")
	if !ok {
		return nil, storefront.ErrNotFound(orderNotFound)
	}
	order, found, err := h.orders.Where("user_id", "=", u.ID).Find(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storefront.ErrNotFound(orderNotFound)
	}

	lines, err := order.Lines(r.Context(), h.db)
	if err != nil {
		return nil, err
	}
	status, err := models.StatusName(order.Status)
	if err != nil {
		return nil, err
	}
	return respond(r, http.StatusOK, "order.html", fmt.Sprintf("Order #%d", order.ID), map[string]any{
		"order":  order,
		"lines":  lines,
		"status": status,
	})
}

// taxOf is the VAT contained in a gross amount.
func taxOf(gross float64) float64 {
	return gross - gross/(1+VATRate)
}
