package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"hbnb/internal/domain"
)

func TestErrorKinds(t *testing.T) {
	nf := domain.NotFoundf("user %s not found", "u-1")
	if !domain.IsNotFound(nf) || domain.IsConflict(nf) {
		t.Fatalf("kind mismatch for %v", nf)
	}
	if domain.KindOf(nf) != domain.KindNotFound {
		t.Fatalf("KindOf: %v", domain.KindOf(nf))
	}

	cf := domain.Conflictf("taken")
	if !domain.IsConflict(cf) {
		t.Fatalf("want conflict, got %v", cf)
	}

	iv := domain.Invalidf("bad")
	if !domain.IsValidation(iv) {
		t.Fatalf("want validation, got %v", iv)
	}
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("facade: %w", domain.Conflictf("email taken"))
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("wrapped kind lost: %v", domain.KindOf(err))
	}
	if domain.KindOf(errors.New("plain")) != 0 {
		t.Fatalf("plain error must have no kind")
	}
}
