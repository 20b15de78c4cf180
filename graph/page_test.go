package graph

import (
	"context"
	"errors"
	"testing"
)

func Test_collectPages_StopsAtBound(t *testing.T) {
	// Pages of 10, 10 and 5; with max=15 the third page must never be fetched.
	mk := func(n, offset int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = offset + i
		}
		return out
	}
	pages := map[string]page[int]{
		"p2": {Value: mk(10, 10), NextLink: "p3"},
		"p3": {Value: mk(5, 20)},
	}
	fetches := 0
	items, err := collectPages(context.Background(), page[int]{Value: mk(10, 0), NextLink: "p2"}, 15, func(_ context.Context, link string) (page[int], error) {
		fetches++
		return pages[link], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 15 {
		t.Fatalf("expected 15 items, got %d", len(items))
	}
	if fetches != 1 {
		t.Fatalf("expected exactly 1 continuation fetch, got %d", fetches)
	}
	// Provider ordering preserved.
	for i, v := range items {
		if v != i {
			t.Fatalf("order broken at %d: got %d", i, v)
		}
	}
}

func Test_collectPages_ExhaustsWhenShort(t *testing.T) {
	fetches := 0
	items, err := collectPages(context.Background(), page[int]{Value: []int{1, 2}, NextLink: "p2"}, 50, func(_ context.Context, _ string) (page[int], error) {
		fetches++
		return page[int]{Value: []int{3}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 || fetches != 1 {
		t.Fatalf("expected all 3 items in 1 fetch, got %d items %d fetches", len(items), fetches)
	}
}

func Test_collectPages_KeepsItemsOnContinuationFailure(t *testing.T) {
	boom := errors.New("boom")
	items, err := collectPages(context.Background(), page[int]{Value: []int{1, 2}, NextLink: "p2"}, 50, func(_ context.Context, _ string) (page[int], error) {
		return page[int]{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error surfaced, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected first-page items kept alongside the error, got %d", len(items))
	}
}

func Test_collectPages_NoContinuation(t *testing.T) {
	items, err := collectPages(context.Background(), page[int]{Value: []int{1, 2, 3}}, 2, func(_ context.Context, _ string) (page[int], error) {
		t.Fatal("next must not be called without a continuation link")
		return page[int]{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(items))
	}
}
