// Package query provides a fluent SQL builder over database/sql.
//
// A Builder collects typed clauses for one table and renders them into a single
// statement with "?" placeholders; values are always bound, never interpolated.
// Terminal methods (Get, First, Find, Count, Exists, Insert, Update, Delete)
// execute exactly one statement and leave the builder unchanged, so a builder
// can be executed repeatedly.
//
// # Usage
//
//	db := query.New(sqlDB, query.WithDialect(query.Postgres), query.WithLogger(log))
//
//	rows, err := db.Table("products").
//	    Select("id", "name", "price").
//	    Where("price", ">=", 10).
//	    WhereIn("category_id", 1, 2, 3).
//	    OrderBy("name", "asc").
//	    Limit(20).
//	    Get(ctx)
//
//	id, err := db.Table("orders").Insert(ctx, map[string]any{"user_id": 7, "total": 19.99})
//
// # Errors
//
// Misuse of the builder (unknown operator, empty WhereIn) is recorded and
// returned by the next terminal call. Driver failures are returned as
// *QueryError carrying the statement text; errors.Is(err, ErrQuery) matches
// them. An empty result is not an error.
//
// # Timeouts
//
// Statements whose context has no deadline run under the DB timeout
// (DefaultTimeout unless WithTimeout is given).
package query
