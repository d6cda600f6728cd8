package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasta/aasta-backend/pkg/enums"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/pagination"
)

func TestLedgerListIncludesEveryStatus(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seed(t, repo, 1, 1000, enums.PaymentStatusCompleted, baseTime)
	seed(t, repo, 2, 5000, enums.PaymentStatusFailed, baseTime.Add(time.Minute))

	svc, err := NewLedgerService(repo)
	require.NoError(t, err)

	items, next, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Empty(t, next)
}

func TestLedgerListRejectsBadCursor(t *testing.T) {
	svc, err := NewLedgerService(NewRepository(newTestDB(t)))
	require.NoError(t, err)

	_, _, err = svc.List(context.Background(), ListQuery{Params: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestLedgerListFiltersByStatus(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	seed(t, repo, 1, 1000, enums.PaymentStatusCompleted, baseTime)
	seed(t, repo, 2, 5000, enums.PaymentStatusFailed, baseTime.Add(time.Minute))
	seed(t, repo, 3, 2000, enums.PaymentStatusCompleted, baseTime.Add(2*time.Minute))

	svc, err := NewLedgerService(repo)
	require.NoError(t, err)

	items, _, err := svc.List(context.Background(), ListQuery{Status: enums.PaymentStatusFailed})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pay_2", items[0].GatewayPaymentID)

	_, _, err = svc.List(context.Background(), ListQuery{Status: "refunded"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
