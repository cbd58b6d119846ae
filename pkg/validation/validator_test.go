package validation_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/validation"
)

type fakeLookup struct {
	err  error
	rows map[string][]any
}

func (f fakeLookup) Exists(_ context.Context, table, column string, value any) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, v := range f.rows[table+"."+column] {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

type fakeFile struct {
	data  []byte
	empty bool
}

func (f fakeFile) Size() int64                  { return int64(len(f.data)) }
func (f fakeFile) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(f.data)), nil }
func (f fakeFile) IsEmpty() bool                { return f.empty }

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func validate(t *testing.T, value any, rule *validation.RuleBuilder, opts ...validation.Option) string {
	t.Helper()

	data := map[string]any{}
	if value != nil {
		data["field"] = value
	}
	opts = append(opts, validation.Field("field", rule))
	err := validation.New(data, opts...).Validate(context.Background())
	if err == nil {
		return ""
	}
	ve, ok := validation.AsValidationError(err)
	require.True(t, ok, "unexpected error: %v", err)
	return ve.Errors["field"]
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		rule  *validation.RuleBuilder
		want  string
	}{
		{"required missing", nil, validation.Rule().Required(), "This field is required"},
		{"required present", "x", validation.Rule().Required(), ""},
		{"required empty string passes", "", validation.Rule().Required(), ""},
		{"required empty file", fakeFile{empty: true}, validation.Rule().Required(), "This field is required"},
		{"not empty zero string", "0", validation.Rule().NotEmpty(), "This field is required"},
		{"not empty value", "a", validation.Rule().NotEmpty(), ""},
		{"email valid", "jane@example.com", validation.Rule().Email(), ""},
		{"email invalid", "jane@", validation.Rule().Email(), "This field must be a valid email address"},
		{"email with name rejected", "Jane <jane@example.com>", validation.Rule().Email(), "This field must be a valid email address"},
		{"numeric string", "12.5", validation.Rule().Numeric(), ""},
		{"numeric json number", 12.5, validation.Rule().Numeric(), ""},
		{"numeric rejects text", "abc", validation.Rule().Numeric(), "This field must be numeric"},
		{"numeric rejects hex", "0x1A", validation.Rule().Numeric(), "This field must be numeric"},
		{"integer", "3", validation.Rule().Integer(), ""},
		{"integer rejects fraction", "3.2", validation.Rule().Integer(), "This field must be an integer"},
		{"integer rejects decimal notation", "1.0", validation.Rule().Integer(), "This field must be an integer"},
		{"integer rejects exponent", "1e1", validation.Rule().Integer(), "This field must be an integer"},
		{"integer negative string", "-4", validation.Rule().Integer(), ""},
		{"integer whole json number", 2.0, validation.Rule().Integer(), ""},
		{"integer fractional json number", 2.5, validation.Rule().Integer(), "This field must be an integer"},
		{"min value", "0", validation.Rule().MinValue(1), "This field must be greater than 1"},
		{"min value equal", "1", validation.Rule().MinValue(1), ""},
		{"max value", "11", validation.Rule().MaxValue(10), "This field must be less than 10"},
		{"min length", "ab", validation.Rule().MinLength(3), "This field must be at least 3 characters long"},
		{"min length counts runes", "äöü", validation.Rule().MinLength(3), ""},
		{"max length", "abcd", validation.Rule().MaxLength(3), "This field must be less than 3 characters long"},
		{"max digits counts raw length", "12.34", validation.Rule().MaxDigits(4), "This field must have at most 4 digits"},
		{"max digits", "1234", validation.Rule().MaxDigits(4), ""},
		{"in array", "asc", validation.Rule().InArray("asc", "desc"), ""},
		{"not in array", "up", validation.Rule().InArray("asc", "desc"), "This field must be one of: asc, desc"},
		{"is array", []any{"1", "2"}, validation.Rule().IsArray(), ""},
		{"is array rejects scalar", "1", validation.Rule().IsArray(), "This field must be an array"},
		{"is array nested failure", []any{"1", "x"}, validation.Rule().IsArray(validation.Rule().Numeric()), "This field must be numeric"},
		{"file", fakeFile{data: []byte("hello")}, validation.Rule().File(), ""},
		{"file rejects string", "hello", validation.Rule().File(), "This field must be a file"},
		{"file rejects empty sentinel", fakeFile{empty: true}, validation.Rule().File(), "This field must be a file"},
		{"image sniffs content", fakeFile{data: pngBytes}, validation.Rule().Image(), ""},
		{"image rejects text", fakeFile{data: []byte("not an image at all")}, validation.Rule().Image(), "This field must be an image"},
		{"max file size", fakeFile{data: make([]byte, 2048)}, validation.Rule().MaxFileSize(1000), "This file must not be larger than 1.0 kB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, validate(t, tt.value, tt.rule))
		})
	}
}

func TestNullable(t *testing.T) {
	t.Parallel()

	rule := func() *validation.RuleBuilder {
		return validation.Rule().Nullable().Numeric().MinValue(5)
	}

	t.Run("missing passes", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, validate(t, nil, rule()))
	})

	t.Run("empty string passes", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, validate(t, "", rule()))
	})

	t.Run("empty file passes", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, validate(t, fakeFile{empty: true}, rule()))
	})

	t.Run("text fails numeric and stops", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "This field must be numeric", validate(t, "abc", rule()))
	})

	t.Run("below min fails", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "This field must be greater than 5", validate(t, "4", rule()))
	})
}

func TestOptional(t *testing.T) {
	t.Parallel()

	rule := func() *validation.RuleBuilder { return validation.Rule().Optional().MinLength(2) }

	assert.Empty(t, validate(t, nil, rule()))
	assert.Equal(t, "This field must be at least 2 characters long", validate(t, "", rule()))
}

func TestValidate_CollectsAllFields(t *testing.T) {
	t.Parallel()

	v := validation.New(map[string]any{
		"email":    "nope",
		"quantity": "0",
		"name":     "Desk",
	},
		validation.Field("email", validation.Rule().Required().Email()),
		validation.Field("quantity", validation.Rule().Required().Numeric().MinValue(1)),
		validation.Field("name", validation.Rule().Required().MinLength(3)),
	)

	err := v.Validate(context.Background())
	require.ErrorIs(t, err, validation.ErrValidation)

	ve, ok := validation.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"email":    "This field must be a valid email address",
		"quantity": "This field must be greater than 1",
	}, ve.Errors)
}

func TestValidate_Validated(t *testing.T) {
	t.Parallel()

	v := validation.New(map[string]any{"name": "Desk", "admin": "1"},
		validation.Field("name", validation.Rule().Required()),
		validation.Field("description", validation.Rule().Nullable()),
	)
	require.NoError(t, v.Validate(context.Background()))
	assert.Equal(t, map[string]any{"name": "Desk"}, v.Validated())
}

func TestValidate_Confirmed(t *testing.T) {
	t.Parallel()

	rules := validation.Field("password", validation.Rule().Required().Confirmed("password-confirmation"))

	err := validation.New(map[string]any{"password": "secret", "password-confirmation": "secret"}, rules).
		Validate(context.Background())
	require.NoError(t, err)

	err = validation.New(map[string]any{"password": "secret", "password-confirmation": "other"}, rules).
		Validate(context.Background())
	ve, ok := validation.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "This field confirmation does not match", ve.Errors["password"])
}

func TestExistsAndUnique(t *testing.T) {
	t.Parallel()

	lookup := validation.WithLookup(fakeLookup{rows: map[string][]any{
		"categories.id": {"1", "2"},
		"users.email":   {"taken@example.com"},
	}})

	assert.Empty(t, validate(t, "1", validation.Rule().Exists("categories", "id"), lookup))
	assert.Equal(t, "This 9 does not exist", validate(t, "9", validation.Rule().Exists("categories", "id"), lookup))
	assert.Equal(t, "This 9 does not exist",
		validate(t, []any{"1", "9"}, validation.Rule().IsArray(validation.Rule().Numeric().Exists("categories", "id")), lookup))

	assert.Empty(t, validate(t, "new@example.com", validation.Rule().Unique("users", "email"), lookup))
	assert.Equal(t, "This email already exists", validate(t, "taken@example.com", validation.Rule().Unique("users", "email"), lookup))
}

func TestLookupFailures(t *testing.T) {
	t.Parallel()

	t.Run("database error is not a validation error", func(t *testing.T) {
		t.Parallel()

		down := errors.New("connection refused")
		err := validation.New(map[string]any{"id": "1"},
			validation.Field("id", validation.Rule().Exists("categories", "id")),
			validation.WithLookup(fakeLookup{err: down}),
		).Validate(context.Background())

		require.ErrorIs(t, err, down)
		require.ErrorIs(t, err, validation.ErrLookup)
		_, ok := validation.AsValidationError(err)
		assert.False(t, ok)
	})

	t.Run("missing lookup", func(t *testing.T) {
		t.Parallel()

		err := validation.New(map[string]any{"id": "1"},
			validation.Field("id", validation.Rule().Exists("categories", "id")),
		).Validate(context.Background())
		require.ErrorIs(t, err, validation.ErrNoLookup)
	})
}
