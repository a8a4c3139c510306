package streak

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/internal/wallet"
)

func newTestEngine(t *testing.T) (*Engine, *users.MemoryRepository) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	usersRepo := users.NewMemoryRepository()
	ledger := wallet.NewLedger(wallet.NewMemoryRepository(), m)
	promoRepo := promoconfig.NewMemoryRepository()
	promoRepo.SeedDefault(func() promoconfig.PromoConfig {
		return promoconfig.PromoConfig{
			Streak: promoconfig.StreakConfig{Enabled: true, BonusAmount: money.New(money.NGN, 500), RequiredStreak: 3},
		}
	})
	promos := promoconfig.NewStore(promoRepo)
	return NewEngine(usersRepo, ledger, promos, nil, m), usersRepo
}

// TestHandleOrderAccepted_S5StreakBonus exercises spec §8 scenario S5:
// config {requiredStreak:3, bonusAmount:500}; three consecutive accepts
// fire the bonus once, and the counter resets so a fourth accept starts
// a fresh count toward the next bonus.
func TestHandleOrderAccepted_S5StreakBonus(t *testing.T) {
	ctx := context.Background()
	engine, usersRepo := newTestEngine(t)
	if err := usersRepo.Create(ctx, users.User{ID: "rider-1", Role: users.RoleRider}); err != nil {
		t.Fatalf("create rider: %v", err)
	}

	engine.HandleOrderAccepted(ctx, eventbus.OrderAccepted{OrderID: "o1", RiderID: "rider-1"})
	engine.HandleOrderAccepted(ctx, eventbus.OrderAccepted{OrderID: "o2", RiderID: "rider-1"})

	bal, err := engine.wallet.Balance(ctx, "rider-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Atomic != 0 {
		t.Fatalf("balance after 2 accepts = %d, want 0", bal.Atomic)
	}

	engine.HandleOrderAccepted(ctx, eventbus.OrderAccepted{OrderID: "o3", RiderID: "rider-1"})

	bal, _ = engine.wallet.Balance(ctx, "rider-1")
	if bal.Atomic != 500 {
		t.Fatalf("balance after 3rd accept = %d, want 500", bal.Atomic)
	}

	rider, err := usersRepo.Get(ctx, "rider-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rider.CurrentStreak != 0 {
		t.Fatalf("CurrentStreak = %d, want 0 after bonus", rider.CurrentStreak)
	}
	if rider.TotalStreakBonuses != 1 {
		t.Fatalf("TotalStreakBonuses = %d, want 1", rider.TotalStreakBonuses)
	}

	// A 4th accept should not re-fire; 3 more are required.
	engine.HandleOrderAccepted(ctx, eventbus.OrderAccepted{OrderID: "o4", RiderID: "rider-1"})
	bal, _ = engine.wallet.Balance(ctx, "rider-1")
	if bal.Atomic != 500 {
		t.Fatalf("balance after 4th accept = %d, want 500 (no re-fire)", bal.Atomic)
	}
}

func TestHandleOrderAccepted_IdempotentOnRedelivery(t *testing.T) {
	ctx := context.Background()
	engine, usersRepo := newTestEngine(t)
	if err := usersRepo.Create(ctx, users.User{ID: "rider-1", Role: users.RoleRider}); err != nil {
		t.Fatalf("create rider: %v", err)
	}

	event := eventbus.OrderAccepted{OrderID: "o1", RiderID: "rider-1"}
	engine.HandleOrderAccepted(ctx, event)
	engine.HandleOrderAccepted(ctx, event)
	engine.HandleOrderAccepted(ctx, event)

	rider, err := usersRepo.Get(ctx, "rider-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rider.CurrentStreak != 1 {
		t.Fatalf("CurrentStreak = %d, want 1 (redelivery must not double-count)", rider.CurrentStreak)
	}
}

func TestHandleOrderCancelled_ResetsStreak(t *testing.T) {
	ctx := context.Background()
	engine, usersRepo := newTestEngine(t)
	if err := usersRepo.Create(ctx, users.User{ID: "rider-1", Role: users.RoleRider, CurrentStreak: 2}); err != nil {
		t.Fatalf("create rider: %v", err)
	}

	engine.HandleOrderCancelled(ctx, eventbus.OrderCancelled{OrderID: "o1", RiderID: "rider-1"})

	rider, err := usersRepo.Get(ctx, "rider-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rider.CurrentStreak != 0 {
		t.Fatalf("CurrentStreak = %d, want 0 after cancel", rider.CurrentStreak)
	}
}

// TestMarkSeen_EvictsOldestBeyondCap exercises the engine's documented
// bound on its dedup set: once maxSeenOrders distinct keys have been
// seen, the least-recently-seen one is evicted and its redelivery is
// (harmlessly) treated as unseen again.
func TestMarkSeen_EvictsOldestBeyondCap(t *testing.T) {
	engine, _ := newTestEngine(t)

	if seen := engine.markSeen("accept:first"); seen {
		t.Fatal("first sighting of a key must return false")
	}

	for i := 0; i < maxSeenOrders; i++ {
		engine.markSeen("accept:filler-" + string(rune(i)))
	}

	if engine.seenOrder.Len() != maxSeenOrders {
		t.Fatalf("seenOrder.Len() = %d, want %d (set must stay capped)", engine.seenOrder.Len(), maxSeenOrders)
	}
	if seen := engine.markSeen("accept:first"); seen {
		t.Fatal("evicted key should be reported as unseen, not still marked seen")
	}
}

func TestMarkSeen_RepeatedKeyStaysMarkedSeen(t *testing.T) {
	engine, _ := newTestEngine(t)

	if seen := engine.markSeen("accept:o1"); seen {
		t.Fatal("first call should report unseen")
	}
	if seen := engine.markSeen("accept:o1"); !seen {
		t.Fatal("second call for the same key should report seen")
	}
	if engine.seenOrder.Len() != 1 {
		t.Fatalf("seenOrder.Len() = %d, want 1 (repeat key must not grow the set)", engine.seenOrder.Len())
	}
}

func TestHandleOrderAccepted_DeactivatedRiderIgnored(t *testing.T) {
	ctx := context.Background()
	engine, usersRepo := newTestEngine(t)
	if err := usersRepo.Create(ctx, users.User{ID: "rider-1", Role: users.RoleRider, AccountDeactivated: true}); err != nil {
		t.Fatalf("create rider: %v", err)
	}

	engine.HandleOrderAccepted(ctx, eventbus.OrderAccepted{OrderID: "o1", RiderID: "rider-1"})

	rider, err := usersRepo.Get(ctx, "rider-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rider.CurrentStreak != 0 {
		t.Fatalf("CurrentStreak = %d, want 0 (deactivated rider ignored)", rider.CurrentStreak)
	}
}
