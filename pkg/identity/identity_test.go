package identity

import (
	"context"
	"testing"
)

func TestSetGet(t *testing.T) {
	ctx := context.Background()

	if _, ok := Get(ctx); ok {
		t.Fatal("expected no identity in empty context")
	}

	id := &Identity{Email: "reviewer@example.com", Roles: []string{"reviewer"}}
	ctx = Set(ctx, id)

	got, ok := Get(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got.Email != "reviewer@example.com" {
		t.Errorf("unexpected email %q", got.Email)
	}
}

func TestHasRole(t *testing.T) {
	id := &Identity{Roles: []string{"user", "reviewer"}}
	if !id.HasRole("reviewer") {
		t.Error("expected HasRole(reviewer) to be true")
	}
	if id.HasRole("admin") {
		t.Error("expected HasRole(admin) to be false")
	}
}
