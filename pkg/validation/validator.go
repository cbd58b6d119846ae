package validation

import (
	"context"
	"errors"
)

// Lookup answers the existence queries behind Exists and Unique.
// *query.DB implements it.
type Lookup interface {
	Exists(ctx context.Context, table, column string, value any) (bool, error)
}

type field struct {
	rule *RuleBuilder
	name string
}

// Validator checks one input map against per-field rule chains.
type Validator struct {
	data   map[string]any
	lookup Lookup
	fields []field
}

// Option configures a Validator.
type Option func(*Validator)

// Field declares the chain for one input field. Fields are validated in
// declaration order.
func Field(name string, rule *RuleBuilder) Option {
	return func(v *Validator) {
		if rule == nil {
			rule = Rule()
		}
		v.fields = append(v.fields, field{name: name, rule: rule})
	}
}

// WithLookup supplies the database used by Exists and Unique.
func WithLookup(l Lookup) Option {
	return func(v *Validator) {
		v.lookup = l
	}
}

// New returns a validator for data.
//
//	v := validation.New(req.All(),
//	    validation.Field("email", validation.Rule().Required().Email().MaxLength(319)),
//	    validation.Field("password", validation.Rule().Required()),
//	    validation.WithLookup(db),
//	)
func New(data map[string]any, opts ...Option) *Validator {
	if data == nil {
		data = map[string]any{}
	}
	v := &Validator{data: data}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every field's chain. It returns a *ValidationError holding
// all failed fields, or the first lookup error as-is.
func (v *Validator) Validate(ctx context.Context) error {
	errs := make(map[string]string)
	for _, f := range v.fields {
		msg, err := f.rule.run(ctx, v, v.data[f.name])
		if err != nil {
			return err
		}
		if msg != "" {
			errs[f.name] = msg
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Validated returns the declared fields that are present in the input.
func (v *Validator) Validated() map[string]any {
	out := make(map[string]any, len(v.fields))
	for _, f := range v.fields {
		if val, ok := v.data[f.name]; ok {
			out[f.name] = val
		}
	}
	return out
}

func (v *Validator) exists(ctx context.Context, table, column string, value any) (bool, error) {
	if v.lookup == nil {
		return false, ErrNoLookup
	}
	ok, err := v.lookup.Exists(ctx, table, column, value)
	if err != nil {
		return false, errors.Join(ErrLookup, err)
	}
	return ok, nil
}
