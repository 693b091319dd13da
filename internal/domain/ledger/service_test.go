package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
)

func scopedCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1", DeviceID: "till-1"})
}

func TestService_RecordSale_ScopesToCaller(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(NewRecorder(repo, tx.Passthrough{}, nil), tx.Passthrough{})

	saleID := id.New()
	entryID, err := svc.RecordSale(scopedCtx(), SaleEvent{
		SaleID:         saleID,
		DeviceID:       "someone-else",
		Status:         entity.SaleCompleted,
		TotalAmount:    types.MustMoney("100"),
		ReceivedAmount: types.MustMoney("100"),
		COGSAmount:     types.MustMoney("40"),
	})
	require.NoError(t, err)

	entries, err := svc.ListForReference(scopedCtx(), RefSale, saleID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, "till-1", entries[0].DeviceID)
	assert.Equal(t, "u-1", entries[0].CreatedBy)
}

func TestService_RecordManual(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(NewRecorder(repo, tx.Passthrough{}, nil), tx.Passthrough{})

	_, err := svc.RecordManual(scopedCtx(), ManualEvent{Type: ManualCredit, Amount: types.MustMoney("15")})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	assert.True(t, repo.entries[0].CreditAmount.Equal(types.MustMoney("15")))

	_, err = svc.RecordManual(context.Background(), ManualEvent{Type: ManualDebit, Amount: types.MustMoney("1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeMissingField))
}

func TestService_ListForReference_Empty(t *testing.T) {
	svc := NewService(NewRecorder(&memRepo{}, tx.Passthrough{}, nil), tx.Passthrough{})

	entries, err := svc.ListForReference(scopedCtx(), RefPurchase, id.New())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestService_CommitFailureIsPersistenceError(t *testing.T) {
	svc := NewService(NewRecorder(&memRepo{}, tx.Passthrough{}, nil), failingCommit{err: errors.New("commit transaction: conn closed")})

	_, err := svc.RecordManual(scopedCtx(), ManualEvent{Type: ManualCredit, Amount: types.MustMoney("15")})
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase), "manual: %v", err)

	_, err = svc.RecordSale(scopedCtx(), SaleEvent{
		SaleID:         id.New(),
		Status:         entity.SaleCompleted,
		TotalAmount:    types.MustMoney("10"),
		ReceivedAmount: types.MustMoney("10"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase), "sale: %v", err)
}
