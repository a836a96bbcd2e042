package filterexpr

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestValidator_EmptyExpressionIsValid(t *testing.T) {
	v, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v.Validate(""); err != nil {
		t.Fatalf("Validate(\"\") = %v, want nil", err)
	}
}

func TestValidator_WellFormedExpression(t *testing.T) {
	v, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v.Validate(`uuid == "abc123"`); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidator_MalformedExpressionErrors(t *testing.T) {
	v, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := v.Validate("uuid ==="); err == nil {
		t.Fatal("expected an error for a syntactically invalid expression")
	}
}

func TestValidator_CachesCompiledExpression(t *testing.T) {
	v, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	expr := `uuid == "abc123"`
	if err := v.Validate(expr); err != nil {
		t.Fatalf("first Validate() = %v", err)
	}
	if _, ok := v.cache.Get(expr); !ok {
		t.Fatal("expected the compiled program to be cached after a successful Validate")
	}
	if err := v.Validate(expr); err != nil {
		t.Fatalf("second Validate() (cache hit) = %v", err)
	}
}
