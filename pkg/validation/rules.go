package validation

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// File is the part of an uploaded file the file rules inspect.
type File interface {
	Size() int64
	Open() (io.ReadCloser, error)
}

// emptyFile is implemented by the sentinel a request uses for a file input
// that was submitted without a file.
type emptyFile interface {
	IsEmpty() bool
}

// check runs one rule. A non-empty message is a validation failure;
// an error is an infrastructure failure that aborts validation.
type check func(ctx context.Context, v *Validator, value any) (string, error)

// RuleBuilder is an ordered rule chain for one field. Rules run in the order
// they were added and the first failure ends the chain.
type RuleBuilder struct {
	checks   []check
	nullable bool
	optional bool
}

// Rule starts an empty chain.
func Rule() *RuleBuilder {
	return &RuleBuilder{}
}

func (r *RuleBuilder) add(c check) *RuleBuilder {
	r.checks = append(r.checks, c)
	return r
}

// Nullable passes the field when it is missing, null, "" or an empty file,
// before any other rule runs.
func (r *RuleBuilder) Nullable() *RuleBuilder {
	r.nullable = true
	return r
}

// Optional passes the field only when it is missing or null.
func (r *RuleBuilder) Optional() *RuleBuilder {
	r.optional = true
	return r
}

// Required fails when the field is missing, null or an empty file.
func (r *RuleBuilder) Required() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if value == nil || isEmptyFile(value) {
			return "This field is required", nil
		}
		return "", nil
	})
}

// NotEmpty fails on null, "", "0", zero numbers, false and empty arrays.
func (r *RuleBuilder) NotEmpty() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if isBlank(value) {
			return "This field is required", nil
		}
		return "", nil
	})
}

// Email requires a bare address such as "jane@example.com".
func (r *RuleBuilder) Email() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		s, ok := value.(string)
		if ok {
			addr, err := mail.ParseAddress(s)
			if err == nil && addr.Address == s && addr.Name == "" {
				return "", nil
			}
		}
		return "This field must be a valid email address", nil
	})
}

// Numeric requires a number or a numeric string.
func (r *RuleBuilder) Numeric() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if _, ok := toNumber(value); !ok {
			return "This field must be numeric", nil
		}
		return "", nil
	})
}

// Integer requires a whole number. Strings must be written as one:
// "1.0" and "1e1" are rejected.
func (r *RuleBuilder) Integer() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if !isInteger(value) {
			return "This field must be an integer", nil
		}
		return "", nil
	})
}

// MinValue fails when the value is below limit.
func (r *RuleBuilder) MinValue(limit float64) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if n, ok := toNumber(value); !ok || n < limit {
			return "This field must be greater than " + formatNumber(limit), nil
		}
		return "", nil
	})
}

// MaxValue fails when the value is above limit.
func (r *RuleBuilder) MaxValue(limit float64) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if n, ok := toNumber(value); !ok || n > limit {
			return "This field must be less than " + formatNumber(limit), nil
		}
		return "", nil
	})
}

// MinLength fails when the value has fewer than limit characters.
func (r *RuleBuilder) MinLength(limit int) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if utf8.RuneCountInString(toString(value)) < limit {
			return fmt.Sprintf("This field must be at least %d characters long", limit), nil
		}
		return "", nil
	})
}

// MaxLength fails when the value has more than limit characters.
func (r *RuleBuilder) MaxLength(limit int) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if utf8.RuneCountInString(toString(value)) > limit {
			return fmt.Sprintf("This field must be less than %d characters long", limit), nil
		}
		return "", nil
	})
}

// MaxDigits fails when the text of the value is longer than limit.
// Signs and decimal points count as digits.
func (r *RuleBuilder) MaxDigits(limit int) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if len(toString(value)) > limit {
			return fmt.Sprintf("This field must have at most %d digits", limit), nil
		}
		return "", nil
	})
}

// InArray requires the value to be one of allowed.
func (r *RuleBuilder) InArray(allowed ...string) *RuleBuilder {
	allowed = slices.Clone(allowed)
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if value != nil && slices.Contains(allowed, toString(value)) {
			return "", nil
		}
		return "This field must be one of: " + strings.Join(allowed, ", "), nil
	})
}

// Exists requires a row in table whose column equals the value.
func (r *RuleBuilder) Exists(table, column string) *RuleBuilder {
	return r.add(func(ctx context.Context, v *Validator, value any) (string, error) {
		found, err := v.exists(ctx, table, column, value)
		if err != nil {
			return "", err
		}
		if !found {
			return fmt.Sprintf("This %s does not exist", toString(value)), nil
		}
		return "", nil
	})
}

// Unique requires that no row in table has column equal to the value.
func (r *RuleBuilder) Unique(table, column string) *RuleBuilder {
	return r.add(func(ctx context.Context, v *Validator, value any) (string, error) {
		found, err := v.exists(ctx, table, column, value)
		if err != nil {
			return "", err
		}
		if found {
			return fmt.Sprintf("This %s already exists", column), nil
		}
		return "", nil
	})
}

// IsArray requires an array value and, when nested chains are given, runs
// them against every element. The first element failure becomes the field's message.
func (r *RuleBuilder) IsArray(nested ...*RuleBuilder) *RuleBuilder {
	return r.add(func(ctx context.Context, v *Validator, value any) (string, error) {
		items, ok := toSlice(value)
		if !ok {
			return "This field must be an array", nil
		}
		for _, item := range items {
			for _, n := range nested {
				msg, err := n.run(ctx, v, item)
				if err != nil || msg != "" {
					return msg, err
				}
			}
		}
		return "", nil
	})
}

// File requires a non-empty uploaded file.
func (r *RuleBuilder) File() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		if _, ok := asFile(value); !ok {
			return "This field must be a file", nil
		}
		return "", nil
	})
}

// Image requires an uploaded file whose content is an image.
// The client supplied content type is ignored.
func (r *RuleBuilder) Image() *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		const msg = "This field must be an image"
		f, ok := asFile(value)
		if !ok {
			return msg, nil
		}
		rc, err := f.Open()
		if err != nil {
			return msg, nil
		}
		defer rc.Close()
		if !storage.IsImageType(storage.DetectReader(rc)) {
			return msg, nil
		}
		return "", nil
	})
}

// MaxFileSize fails when an uploaded file is larger than limit bytes.
func (r *RuleBuilder) MaxFileSize(limit int64) *RuleBuilder {
	return r.add(func(_ context.Context, _ *Validator, value any) (string, error) {
		f, ok := asFile(value)
		if !ok {
			return "This field must be a file", nil
		}
		if f.Size() > limit {
			return "This file must not be larger than " + humanize.Bytes(uint64(limit)), nil
		}
		return "", nil
	})
}

// Confirmed requires the value to equal the value of another field,
// e.g. "password" and "password-confirmation".
func (r *RuleBuilder) Confirmed(field string) *RuleBuilder {
	return r.add(func(_ context.Context, v *Validator, value any) (string, error) {
		if toString(value) != toString(v.data[field]) {
			return "This field confirmation does not match", nil
		}
		return "", nil
	})
}

// Custom appends a rule; fn returns a non-empty message to fail the field.
func (r *RuleBuilder) Custom(fn func(ctx context.Context, value any) (string, error)) *RuleBuilder {
	return r.add(func(ctx context.Context, _ *Validator, value any) (string, error) {
		return fn(ctx, value)
	})
}

// run evaluates the chain against one value.
func (r *RuleBuilder) run(ctx context.Context, v *Validator, value any) (string, error) {
	if r.nullable && isNull(value) {
		return "", nil
	}
	if r.optional && value == nil {
		return "", nil
	}
	for _, c := range r.checks {
		msg, err := c(ctx, v, value)
		if err != nil {
			return "", err
		}
		if msg != "" {
			return msg, nil
		}
	}
	return "", nil
}

func isNull(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return isEmptyFile(value)
}

func isEmptyFile(value any) bool {
	e, ok := value.(emptyFile)
	return ok && e.IsEmpty()
}

func asFile(value any) (File, bool) {
	if value == nil || isEmptyFile(value) {
		return nil, false
	}
	f, ok := value.(File)
	return f, ok
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case bool:
		return !v
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	if n, ok := toNumber(value); ok {
		return n == 0
	}
	return isEmptyFile(value)
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.ContainsAny(s, "xX_") {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isInteger(value any) bool {
	if s, ok := value.(string); ok {
		_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return err == nil
	}
	n, ok := toNumber(value)
	return ok && n == math.Trunc(n)
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items, true
	}
	return nil, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
