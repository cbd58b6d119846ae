package models

import (
	"context"

	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
)

type Category struct {
	model.Base
	ParentID    *int64 `json:"parent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (Category) Meta() model.Meta { return model.Meta{Table: "categories"} }

func (c Category) Attributes() map[string]any {
	return map[string]any{
		"parent_id":   model.NullInt64(c.ParentID),
		"name":        c.Name,
		"description": c.Description,
	}
}

func (c *Category) Fill(row model.Row) error {
	c.ParentID = model.Int64Ptr(row, "parent_id")
	c.Name = model.String(row, "name")
	c.Description = model.String(row, "description")
	return nil
}

func (c *Category) Parent(ctx context.Context, db *query.DB) (*Category, bool, error) {
	if c.ParentID == nil {
		return nil, false, nil
	}
	return model.BelongsTo[Category](ctx, db, c, "parent_id")
}

func (c *Category) Subcategories(ctx context.Context, db *query.DB) ([]*Category, error) {
	return model.HasMany[Category](ctx, db, c, "parent_id")
}

func (c *Category) Products(ctx context.Context, db *query.DB) ([]*Product, error) {
	return model.BelongsToMany[Product](ctx, db, c, model.Pivot{
		Table:           CategoryProducts.Table,
		ForeignPivotKey: CategoryProducts.RelatedPivotKey,
		RelatedPivotKey: CategoryProducts.ForeignPivotKey,
	})
}

// CategoryProducts links products to categories.
var CategoryProducts = model.Pivot{
	Table:           "category_product",
	ForeignPivotKey: "product_id",
	RelatedPivotKey: "category_id",
}

type Product struct {
	model.Base
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Ean13         string  `json:"ean13"`
	ThumbnailPath string  `json:"thumbnail_path"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
}

func (Product) Meta() model.Meta {
	return model.Meta{Table: "products", SoftDeletes: true, Timestamps: true}
}

func (p Product) Attributes() map[string]any {
	return map[string]any{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"stock_quantity": p.StockQuantity,
		"ean13":          p.Ean13,
		"thumbnail_path": p.ThumbnailPath,
	}
}

func (p *Product) Fill(row model.Row) error {
	p.Name = model.String(row, "name")
	p.Description = model.String(row, "description")
	p.Price = model.Float64(row, "price")
	p.StockQuantity = model.Int64(row, "stock_quantity")
	p.Ean13 = model.String(row, "ean13")
	p.ThumbnailPath = model.String(row, "thumbnail_path")
	return nil
}

func (p *Product) Categories(ctx context.Context, db *query.DB) ([]*Category, error) {
	return model.BelongsToMany[Category](ctx, db, p, CategoryProducts)
}

// AttachCategories links the product to each category id.
func (p *Product) AttachCategories(ctx context.Context, db *query.DB, ids ...int64) error {
	for _, id := range ids {
		if err := model.Attach(ctx, db, p, CategoryProducts, id, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *Product) DetachCategories(ctx context.Context, db *query.DB, ids ...any) error {
	_, err := model.Detach(ctx, db, p, CategoryProducts, ids...)
	return err
}

// DecrementStock lowers the stock by quantity without letting it go negative.
func (p *Product) DecrementStock(ctx context.Context, db *query.DB, quantity int64) error {
	if p.StockQuantity < quantity {
		return ErrOutOfStock
	}
	n, err := db.Table("products").
		Where("id", "=", p.ID).
		Where("stock_quantity", ">=", quantity).
		Update(ctx, map[string]any{"stock_quantity": p.StockQuantity - quantity})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOutOfStock
	}
	p.StockQuantity -= quantity
	return nil
}
