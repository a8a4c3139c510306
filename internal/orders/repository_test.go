package orders

import (
	"context"
	"testing"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
)

func TestMemoryRepository_ListDeliveredBetweenFiltersByWindowAndRider(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	weekStart := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	inWindow := deliveredOrder("in-window", "rider-1", 1000, ServiceTypeCourier)
	inWindowTime := weekStart.Add(time.Hour)
	inWindow.Delivery.DeliveredAt = &inWindowTime

	beforeWindow := deliveredOrder("before-window", "rider-1", 1000, ServiceTypeCourier)
	beforeTime := weekStart.Add(-time.Hour)
	beforeWindow.Delivery.DeliveredAt = &beforeTime

	atEnd := deliveredOrder("at-end", "rider-1", 1000, ServiceTypeCourier)
	atEnd.Delivery.DeliveredAt = &weekEnd // exclusive end, must not be included

	otherRider := deliveredOrder("other-rider", "rider-2", 1000, ServiceTypeCourier)
	otherRiderTime := weekStart.Add(2 * time.Hour)
	otherRider.Delivery.DeliveredAt = &otherRiderTime

	for _, o := range []Order{inWindow, beforeWindow, atEnd, otherRider} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("Create(%s): %v", o.ID, err)
		}
	}

	all, err := repo.ListDeliveredBetween(ctx, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListDeliveredBetween: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListDeliveredBetween returned %d orders, want 2 (in-window, other-rider)", len(all))
	}

	riderOnly, err := repo.ListDeliveredByRiderBetween(ctx, "rider-1", weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListDeliveredByRiderBetween: %v", err)
	}
	if len(riderOnly) != 1 || riderOnly[0].ID != "in-window" {
		t.Fatalf("ListDeliveredByRiderBetween = %+v, want just in-window", riderOnly)
	}
}

func TestMemoryRepository_GetNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_CreateDuplicateFails(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	o := Order{ID: "dup", Price: money.New(money.NGN, 1000), Status: StatusPending}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, o); err != ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}
