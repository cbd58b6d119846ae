// Package validation checks request input against declarative per-field rule chains.
//
//	err := validation.New(input,
//	    validation.Field("quantity", validation.Rule().Required().Numeric().MinValue(1)),
//	    validation.Field("categories", validation.Rule().Nullable().IsArray(
//	        validation.Rule().Numeric().Exists("categories", "id"),
//	    )),
//	    validation.WithLookup(db),
//	).Validate(ctx)
//
// Each field records at most one message: the first failing rule ends its
// chain. A failed validation returns one *ValidationError with every failed
// field; database lookup failures are returned unchanged so callers can tell
// bad input from an unavailable database.
package validation
