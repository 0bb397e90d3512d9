package tenant

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/nepwoop/leadflow/pkg/blob"
)

func memStore() blob.Store {
	return blob.NewFileStore(blob.WithFs(afero.NewMemMapFs()))
}

func TestRegistrySaveAndLookup(t *testing.T) {
	reg, err := NewRegistry(memStore())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	cfg := Config{
		PageID:       "page-1",
		UserID:       "owner-1",
		BusinessName: "Dental Clinic",
		Fields:       []string{"name", "email"},
	}
	if err := reg.Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := reg.ByPage("page-1")
	if !ok || got.BusinessName != "Dental Clinic" {
		t.Fatalf("ByPage = %v, %v", got, ok)
	}
	got, ok = reg.ByUser("owner-1")
	if !ok || got.PageID != "page-1" {
		t.Fatalf("ByUser = %v, %v", got, ok)
	}
}

func TestRegistryValidation(t *testing.T) {
	reg, err := NewRegistry(memStore())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := reg.Save(Config{UserID: "owner-1"}); err == nil {
		t.Fatal("expected validation error for missing page_id")
	}
	if err := reg.Save(Config{PageID: "page-1"}); err == nil {
		t.Fatal("expected validation error for missing user_id")
	}
}

func TestRegistryReplaceMovesPageIndex(t *testing.T) {
	reg, err := NewRegistry(memStore())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := reg.Save(Config{PageID: "page-old", UserID: "owner-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := reg.Save(Config{PageID: "page-new", UserID: "owner-1"}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	if _, ok := reg.ByPage("page-old"); ok {
		t.Fatal("stale page index entry should be gone")
	}
	if _, ok := reg.ByPage("page-new"); !ok {
		t.Fatal("new page index entry missing")
	}
}

func TestRegistryReloadsFromStore(t *testing.T) {
	store := memStore()

	first, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := first.Save(Config{PageID: "page-1", UserID: "owner-1", Offerings: "cleaning"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("reload registry: %v", err)
	}
	got, ok := second.ByPage("page-1")
	if !ok || got.Offerings != "cleaning" {
		t.Fatalf("reloaded config = %v, %v", got, ok)
	}
}
