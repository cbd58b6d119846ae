// Package model maps typed structs onto tables through the query builder.
//
// A model is a struct embedding Base that describes its table with Meta and
// maps columns explicitly in Attributes and Fill:
//
//	type Product struct {
//	    model.Base
//	    Name  string
//	    Price float64
//	}
//
//	func (Product) Meta() model.Meta {
//	    return model.Meta{Table: "products", SoftDeletes: true, Timestamps: true}
//	}
//
//	func (p Product) Attributes() map[string]any {
//	    return map[string]any{"name": p.Name, "price": p.Price}
//	}
//
//	func (p *Product) Fill(row model.Row) error {
//	    p.Name = model.String(row, "name")
//	    p.Price = model.Float64(row, "price")
//	    return nil
//	}
//
// Repository provides finding, saving and deleting; Save inserts records with
// a zero ID and updates the rest. Soft-deleted records are hidden from every
// query unless WithTrashed or OnlyTrashed is used.
//
// Relations are plain generic functions (HasMany, HasOne, BelongsTo,
// BelongsToMany) that query on every call.
package model
