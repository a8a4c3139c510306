package users

import (
	"context"
	"testing"
	"time"
)

func TestGoldStatus_IsActiveAt(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		gs   GoldStatus
		at   time.Time
		want bool
	}{
		{"not granted", GoldStatus{}, now, false},
		{"active within window", GoldStatus{IsActive: true, ExpiresAt: now.Add(time.Hour)}, now, true},
		{"expired", GoldStatus{IsActive: true, ExpiresAt: now.Add(-time.Hour)}, now, false},
		{"isActive false even if expiresAt future", GoldStatus{IsActive: false, ExpiresAt: now.Add(time.Hour)}, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gs.IsActiveAt(tt.at); got != tt.want {
				t.Errorf("IsActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_TripCountField(t *testing.T) {
	rider := User{Role: RoleRider}
	customer := User{Role: RoleCustomer}

	if rider.TripCountField() != "rider" {
		t.Errorf("rider.TripCountField() = %q, want rider", rider.TripCountField())
	}
	if customer.TripCountField() != "customer" {
		t.Errorf("customer.TripCountField() = %q, want customer", customer.TripCountField())
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := User{ID: "u1", Role: RoleRider, ReferralCode: "ABC123"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ReferralCode != "ABC123" {
		t.Errorf("ReferralCode = %q, want ABC123", got.ReferralCode)
	}

	byCode, err := repo.GetByReferralCode(ctx, "ABC123")
	if err != nil {
		t.Fatalf("GetByReferralCode: %v", err)
	}
	if byCode.ID != "u1" {
		t.Errorf("GetByReferralCode returned ID %q, want u1", byCode.ID)
	}
}

func TestMemoryRepository_CreateDuplicateReferralCodeFails(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Create(ctx, User{ID: "u1", ReferralCode: "ABC123"}); err != nil {
		t.Fatalf("Create u1: %v", err)
	}
	if err := repo.Create(ctx, User{ID: "u2", ReferralCode: "ABC123"}); err != ErrCodeTaken {
		t.Errorf("expected ErrCodeTaken, got %v", err)
	}
}

func TestMemoryRepository_GetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository_UpdateChangesReferralCodeIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u := User{ID: "u1", ReferralCode: "OLD1"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.ReferralCode = "NEW1"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := repo.GetByReferralCode(ctx, "OLD1"); err != ErrNotFound {
		t.Errorf("expected old code to be unindexed, got %v", err)
	}
	got, err := repo.GetByReferralCode(ctx, "NEW1")
	if err != nil {
		t.Fatalf("GetByReferralCode(NEW1): %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("got ID %q, want u1", got.ID)
	}
}

func TestMemoryRepository_CountDeliveredOrdersDelegates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	repo.SetDeliveredOrderCounter(func(userID string, role Role) int {
		if userID == "r1" && role == RoleRider {
			return 3
		}
		return 0
	})

	count, err := repo.CountDeliveredOrders(ctx, "r1", RoleRider)
	if err != nil {
		t.Fatalf("CountDeliveredOrders: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestLocker_SerializesSameUser(t *testing.T) {
	l := NewLocker()
	done := make(chan struct{})

	unlock := l.Lock("r1")
	go func() {
		defer close(done)
		unlock2 := l.Lock("r1")
		defer unlock2()
	}()

	select {
	case <-done:
		t.Fatal("second Lock should have blocked until the first unlocked")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-done
}

func TestLocker_AllowsDifferentUsersConcurrently(t *testing.T) {
	l := NewLocker()
	unlock1 := l.Lock("r1")
	defer unlock1()

	done := make(chan struct{})
	go func() {
		defer close(done)
		unlock2 := l.Lock("r2")
		unlock2()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different user should not block")
	}
}
