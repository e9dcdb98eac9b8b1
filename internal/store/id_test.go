package store

import (
	"errors"
	"strings"
	"testing"
)

func TestGeneratePostIDShape(t *testing.T) {
	id, err := GeneratePostID(nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(id, "po-") {
		t.Fatalf("expected po- prefix, got %q", id)
	}
	if len(id) != len("po-")+idHashLength {
		t.Fatalf("unexpected id length: %q", id)
	}
	for _, r := range id[len("po-"):] {
		if !strings.ContainsRune(base36Alphabet, r) {
			t.Fatalf("unexpected character %q in id %q", r, id)
		}
	}
}

func TestGeneratePostIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := GeneratePostID(nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGeneratePostIDRetriesOnCollision(t *testing.T) {
	collisions := 3
	id, err := GeneratePostID(func(string) (bool, error) {
		if collisions > 0 {
			collisions--
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id == "" {
		t.Fatal("expected id after retries")
	}
	if collisions != 0 {
		t.Fatalf("expected exists to be consulted, %d collisions left", collisions)
	}
}

func TestGeneratePostIDSurfacesExistsError(t *testing.T) {
	wantErr := errors.New("store down")
	_, err := GeneratePostID(func(string) (bool, error) {
		return false, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
