package format

import (
	"testing"
	"time"
)

// countingRepo wraps the in-memory repository and counts storage reads so
// cache behavior is observable.
type countingRepo struct {
	*InMemoryRepository
	listCalls int
}

func (r *countingRepo) ListActive() ([]Format, error) {
	r.listCalls++
	return r.InMemoryRepository.ListActive()
}

func seedFormats() []Format {
	return []Format{
		{Key: "ebook", Name: "Ebook", Price: 19.99, Digital: true, Active: true},
		{Key: "hardcover", Name: "Hardcover", Price: 24.99, Active: true},
		{Key: "retired", Name: "Old edition", Price: 9.99, Active: false},
	}
}

func TestActiveMap_CachesWithinTTL(t *testing.T) {
	repo := &countingRepo{InMemoryRepository: NewInMemoryRepository(seedFormats())}
	svc := NewService(repo, time.Minute)

	for i := 0; i < 3; i++ {
		m, err := svc.ActiveMap()
		if err != nil {
			t.Fatalf("ActiveMap failed: %v", err)
		}
		if len(m) != 2 {
			t.Fatalf("expected 2 active formats, got %d", len(m))
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected 1 storage read, got %d", repo.listCalls)
	}
}

func TestActiveMap_RefreshesAfterTTL(t *testing.T) {
	repo := &countingRepo{InMemoryRepository: NewInMemoryRepository(seedFormats())}
	svc := NewService(repo, time.Minute)

	current := time.Now()
	svc.now = func() time.Time { return current }

	if _, err := svc.ActiveMap(); err != nil {
		t.Fatal(err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := svc.ActiveMap(); err != nil {
		t.Fatal(err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected cache refresh after TTL, got %d storage reads", repo.listCalls)
	}
}

func TestUpsert_InvalidatesCache(t *testing.T) {
	repo := &countingRepo{InMemoryRepository: NewInMemoryRepository(seedFormats())}
	svc := NewService(repo, time.Minute)

	if _, err := svc.Get("ebook"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Upsert(Format{Key: "audiobook", Name: "Audiobook", Price: 14.99, Digital: true, Active: true}); err != nil {
		t.Fatal(err)
	}

	// the admin write must be visible immediately, not after the TTL
	f, err := svc.Get("audiobook")
	if err != nil {
		t.Fatalf("expected new format visible after invalidation: %v", err)
	}
	if f.Price != 14.99 {
		t.Fatalf("unexpected price %v", f.Price)
	}
}

func TestList_ServedFromCache(t *testing.T) {
	repo := &countingRepo{InMemoryRepository: NewInMemoryRepository(seedFormats())}
	svc := NewService(repo, time.Minute)

	first, err := svc.List()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get("ebook"); err != nil {
		t.Fatal(err)
	}
	// both the list and key lookups share one snapshot
	if repo.listCalls != 1 {
		t.Fatalf("expected 1 storage read, got %d", repo.listCalls)
	}

	if len(first) != 2 {
		t.Fatalf("expected 2 active formats, got %d", len(first))
	}
	// cheapest first
	if first[0].Key != "ebook" || first[1].Key != "hardcover" {
		t.Fatalf("unexpected order: %s, %s", first[0].Key, first[1].Key)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedFormats()), time.Minute)
	if _, err := svc.Get("no-such-format"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// inactive formats are not part of the live map
	if _, err := svc.Get("retired"); err != ErrNotFound {
		t.Fatalf("expected retired format to be invisible, got %v", err)
	}
}

func TestDiscountRate(t *testing.T) {
	bundle := Format{Key: "bundle", Name: "Bundle", Bundle: true}
	standard := Format{Key: "hardcover", Name: "Hardcover"}
	if bundle.DiscountRate() != 0.25 {
		t.Fatalf("bundle discount = %v", bundle.DiscountRate())
	}
	if standard.DiscountRate() != 0.15 {
		t.Fatalf("standard discount = %v", standard.DiscountRate())
	}
}
