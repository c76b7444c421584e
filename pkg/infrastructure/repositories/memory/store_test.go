package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/domain/entities"
)

func newRequest(t *testing.T, resource string, required float64) *entities.ResourceRequest {
	t.Helper()
	req, err := entities.NewResourceRequest(resource, required, uuid.New(), "Test activity", "Test")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return req
}

func TestStore_Remove(t *testing.T) {
	tests := []struct {
		name             string
		stock            float64
		required         float64
		limit            float64
		expectedProvided float64
		expectedLeft     float64
	}{
		{"full supply", 500, 100, 100, 100, 400},
		{"partial supply", 80, 100, 100, 80, 0},
		{"limited by arbitrator", 500, 100, 60, 60, 440},
		{"empty store", 0, 100, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger(nil)
			store := NewStore("Hay", tt.stock, ledger)
			req := newRequest(t, "Hay", tt.required)

			provided := store.Remove(req, tt.limit)

			if provided != tt.expectedProvided {
				t.Errorf("Expected provided %g, got %g", tt.expectedProvided, provided)
			}
			if req.Provided != tt.expectedProvided {
				t.Errorf("Expected request provided %g, got %g", tt.expectedProvided, req.Provided)
			}
			if req.Available != tt.stock {
				t.Errorf("Expected request available %g, got %g", tt.stock, req.Available)
			}
			if store.Amount() != tt.expectedLeft {
				t.Errorf("Expected %g left, got %g", tt.expectedLeft, store.Amount())
			}
			if tt.expectedProvided > 0 && len(ledger.Transactions()) != 1 {
				t.Errorf("Expected 1 transaction, got %d", len(ledger.Transactions()))
			}
		})
	}
}

func TestStore_AddIgnoresNonPositive(t *testing.T) {
	store := NewStore("Manure", 10, nil)
	store.Add(-5, "Test", "", "")
	store.Add(0, "Test", "", "")
	store.Add(2.5, "Test", "", "")
	if store.Amount() != 12.5 {
		t.Errorf("Expected 12.5, got %g", store.Amount())
	}
}

func TestBankAccount_RemoveUsesOverdraft(t *testing.T) {
	ledger := NewLedger(nil)
	bank := NewBankAccount("Bank", decimal.NewFromInt(100), decimal.NewFromInt(50), ledger)
	req := newRequest(t, "Bank", 200)

	provided := bank.Remove(req, req.Required)

	if provided != 150 {
		t.Errorf("Expected 150 provided, got %g", provided)
	}
	if !bank.Balance().Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected balance -50, got %s", bank.Balance())
	}
	if !bank.Funds().IsZero() {
		t.Errorf("Expected no funds left, got %s", bank.Funds())
	}
}

func TestBankAccount_DepositRoundsToCents(t *testing.T) {
	bank := NewBankAccount("Bank", decimal.Zero, decimal.Zero, nil)
	bank.Add(10.005, "Sale", "", "")
	bank.Add(0.1, "Sale", "", "")
	bank.Add(0.2, "Sale", "", "")
	if !bank.Balance().Equal(decimal.RequireFromString("10.31")) {
		t.Errorf("Expected 10.31, got %s", bank.Balance())
	}
}

func TestLabourPool_ResetsEachTimestep(t *testing.T) {
	pool := NewLabourPool("Family labour", 2, nil)
	pool.DaysInMonth = 30
	pool.ResetForTimestep(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))

	req := newRequest(t, "Family labour", 45)
	pool.Remove(req, req.Required)
	if pool.Amount() != 15 {
		t.Errorf("Expected 15 days left, got %g", pool.Amount())
	}

	pool.ResetForTimestep(time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC))
	if pool.Amount() != 60 {
		t.Errorf("Expected 60 days after reset, got %g", pool.Amount())
	}
}

func TestRegistry_Resolve(t *testing.T) {
	registry := NewRegistry(nil, nil)
	if err := registry.AddPool(NewStore("Hay", 10, registry.Ledger)); err != nil {
		t.Fatalf("Failed to add pool: %v", err)
	}
	if err := registry.AddPool(NewStore("Hay", 10, registry.Ledger)); err == nil {
		t.Error("Expected duplicate pool to fail")
	}

	pool, err := registry.Resolve("Hay", entities.ReportErrorAndStopOnMissing)
	if err != nil || pool == nil {
		t.Fatalf("Expected Hay to resolve, got %v, %v", pool, err)
	}

	pool, err = registry.Resolve("Silage", entities.Ignore)
	if err != nil || pool != nil {
		t.Errorf("Expected ignored missing resource, got %v, %v", pool, err)
	}

	pool, err = registry.Resolve("Silage", entities.ReportAndUsePartial)
	if err != nil || pool != nil {
		t.Errorf("Expected partial missing resource, got %v, %v", pool, err)
	}

	_, err = registry.Resolve("Silage", entities.ReportErrorAndStopOnMissing)
	if !errors.Is(err, entities.ErrResourceNotFound) {
		t.Errorf("Expected ErrResourceNotFound, got %v", err)
	}
}
