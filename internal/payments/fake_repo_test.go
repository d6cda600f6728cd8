package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aasta/aasta-backend/pkg/db/models"
)

// fakeRepo enforces the two unique keys in memory.
type fakeRepo struct {
	mu        sync.Mutex
	byPayment map[string]models.Investment
	byOrder   map[string]string
	creates   int

	lookupHook func(call int)
	lookups    int
	createErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byPayment: map[string]models.Investment{},
		byOrder:   map[string]string{},
	}
}

func (f *fakeRepo) FindByPaymentID(_ context.Context, paymentID string) (*models.Investment, error) {
	f.mu.Lock()
	f.lookups++
	call := f.lookups
	hook := f.lookupHook
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byPayment[paymentID]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindByOrderID(_ context.Context, orderID string) (*models.Investment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if paymentID, ok := f.byOrder[orderID]; ok {
		inv := f.byPayment[paymentID]
		return &inv, nil
	}
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, inv *models.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byPayment[inv.GatewayPaymentID]; ok {
		return fmt.Errorf("insert investment: %w", gorm.ErrDuplicatedKey)
	}
	if _, ok := f.byOrder[inv.GatewayOrderID]; ok {
		return fmt.Errorf("insert investment: %w", gorm.ErrDuplicatedKey)
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now()
	f.byPayment[inv.GatewayPaymentID] = *inv
	f.byOrder[inv.GatewayOrderID] = inv.GatewayPaymentID
	f.creates++
	return nil
}

func (f *fakeRepo) Totals(context.Context) (Totals, error) { return Totals{}, nil }

func (f *fakeRepo) Recent(context.Context, int) ([]models.Investment, error) { return nil, nil }

func (f *fakeRepo) List(context.Context, ListQuery) (*Page, error) { return &Page{}, nil }

func (f *fakeRepo) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}
