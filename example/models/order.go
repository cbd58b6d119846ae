package models

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
)

// Order statuses.
const (
	StatusPending = iota
	StatusPaid
	StatusShipped
)

var statusNames = map[int]string{
	StatusPending: "pending",
	StatusPaid:    "paid",
	StatusShipped: "shipped",
}

// StatusName returns the name of an order status.
func StatusName(status int) (string, error) {
	name, ok := statusNames[status]
	if !ok {
		return "", ErrUnknownStatus
	}
	return name, nil
}

// OrderProducts is the order_product join table. Each row carries the
// quantity and the unit price at the time of the order.
var OrderProducts = model.Pivot{
	Table:           "order_product",
	ForeignPivotKey: "order_id",
	RelatedPivotKey: "product_id",
}

type Order struct {
	model.Base
	UserID        int64   `json:"user_id"`
	Status        int     `json:"status"`
	TotalProducts float64 `json:"total_products"`
	TotalTax      float64 `json:"total_tax"`
}

func (Order) Meta() model.Meta { return model.Meta{Table: "orders", Timestamps: true} }

func (o Order) Attributes() map[string]any {
	return map[string]any{
		"user_id":        o.UserID,
		"status":         o.Status,
		"total_products": o.TotalProducts,
		"total_tax":      o.TotalTax,
	}
}

func (o *Order) Fill(row model.Row) error {
	o.UserID = model.Int64(row, "user_id")
	o.Status = model.Int(row, "status")
	o.TotalProducts = model.Float64(row, "total_products")
	o.TotalTax = model.Float64(row, "total_tax")
	return nil
}

func (o *Order) User(ctx context.Context, db *query.DB) (*User, bool, error) {
	return model.BelongsTo[User](ctx, db, o, "")
}

// AttachProduct adds quantity units of p to the order at p's current price.
func (o *Order) AttachProduct(ctx context.Context, db *query.DB, p *Product, quantity int64) error {
	return model.Attach(ctx, db, o, OrderProducts, p.ID, model.Row{
		"quantity":   quantity,
		"unit_price": p.Price,
	})
}

// OrderLine is a product as it was ordered.
type OrderLine struct {
	Product   *Product `json:"product"`
	Quantity  int64    `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
}

// Lines loads the order's products with their pivot quantity and price.
func (o *Order) Lines(ctx context.Context, db *query.DB) ([]OrderLine, error) {
	products, err := model.BelongsToMany[Product](ctx, db, o, OrderProducts)
	if err != nil {
		return nil, err
	}
	lines := make([]OrderLine, 0, len(products))
	for _, p := range products {
		pivot := model.PivotOf(p)
		lines = append(lines, OrderLine{
			Product:   p,
			Quantity:  model.Int64(pivot, "quantity"),
			UnitPrice: model.Float64(pivot, "unit_price"),
		})
	}
	return lines, nil
}
