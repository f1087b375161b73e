//go:build integration

package store

import (
	"context"
	stderrors "errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/zplkit/pkg/label"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("ZPLKIT_MONGO_URI")
	if uri == "" {
		t.Skip("ZPLKIT_MONGO_URI not set")
	}
	ctx := context.Background()
	db := "zplkit_test_" + uuid.NewString()[:8]

	s, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		s.client.Database(db).Drop(ctx)
		s.Close()
	}()

	doc := newDoc(t, "asset", label.TypeQRCode, label.TypeLine)
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "asset")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 2 || got.List()[1].Type != label.TypeLine {
		t.Errorf("Load() = %+v", got.List())
	}

	list, err := s.List(ctx)
	if err != nil || len(list) != 1 || list[0].Elements != 2 {
		t.Errorf("List() = %+v, %v", list, err)
	}

	if err := s.Delete(ctx, "asset"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "asset"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v", err)
	}
}
