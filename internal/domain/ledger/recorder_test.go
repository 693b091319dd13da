package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
)

func TestRecordSaleTransaction(t *testing.T) {
	repo := &memRepo{}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)
	saleID := id.New()

	entryID, err := r.RecordSaleTransaction(context.Background(), SaleEvent{
		SaleID:         saleID,
		DeviceID:       "till-1",
		UserID:         "u-1",
		Status:         entity.SaleCompleted,
		TotalAmount:    money("100"),
		ReceivedAmount: money("100"),
		COGSAmount:     money("40"),
	})

	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, entryID, repo.entries[0].ID)
	assertMoney(t, "60", repo.entries[0].CreditAmount, "credit")
	assert.Len(t, outbox.recorded, 1)
}

func TestRecordSaleTransaction_RejectsOverpayment(t *testing.T) {
	repo := &memRepo{}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)

	_, err := r.RecordSaleTransaction(context.Background(), SaleEvent{
		SaleID:         id.New(),
		DeviceID:       "till-1",
		UserID:         "u-1",
		Status:         entity.SaleCompleted,
		TotalAmount:    money("100"),
		ReceivedAmount: money("150"),
		COGSAmount:     money("40"),
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeReceivedExceedsTotal))
	assert.Empty(t, repo.entries)
	assert.Empty(t, outbox.recorded)
}

func TestRecordSaleTransaction_MissingField(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, tx.Passthrough{}, nil)

	_, err := r.RecordSaleTransaction(context.Background(), SaleEvent{
		SaleID: id.New(),
		UserID: "u-1",
		Status: entity.SaleCompleted,
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeMissingField))
	assert.Empty(t, repo.entries)
}

func TestRecordPurchase_ShadowsValidEvents(t *testing.T) {
	repo := &memRepo{insertErr: errStoreDown}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)
	ev := PurchaseEvent{
		PurchaseID:     id.New(),
		DeviceID:       "till-1",
		UserID:         "u-1",
		Status:         entity.PurchaseCredit,
		TotalAmount:    money("200"),
		ReceivedAmount: money("50"),
	}

	entryID, err := r.RecordPurchase(context.Background(), ev)
	require.NoError(t, err, "a failed insert is deferred, not returned")
	require.Len(t, outbox.deferred, 1)
	assert.Equal(t, entryID, outbox.deferred[0].ID)
	assertMoney(t, "50", outbox.deferred[0].DebitAmount, "debit")

	ev.ReceivedAmount = money("250")
	_, err = r.RecordPurchase(context.Background(), ev)
	assert.True(t, apperror.HasCode(err, apperror.CodeReceivedExceedsTotal))
	assert.Len(t, outbox.deferred, 1)
}

func TestRecordSale_Shadow(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, tx.Passthrough{}, nil)

	entryID, err := r.RecordSale(context.Background(), SaleEvent{
		SaleID:         id.New(),
		DeviceID:       "till-1",
		UserID:         "u-1",
		Status:         entity.SaleCredit,
		TotalAmount:    money("80"),
		ReceivedAmount: money("0"),
		COGSAmount:     money("30"),
	})

	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, entryID, repo.entries[0].ID)
	assertMoney(t, "30", repo.entries[0].CostAmount, "cost")
}

func TestRecord_PersistenceFailure(t *testing.T) {
	repo := &memRepo{insertErr: errStoreDown}
	r := NewRecorder(repo, tx.Passthrough{}, nil)

	_, err := r.RecordManual(context.Background(), ManualEvent{
		DeviceID: "d", UserID: "u", Type: ManualCredit, Amount: money("5"),
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
	assert.True(t, errors.Is(err, errStoreDown))
}

func TestShadow_DefersOnFailure(t *testing.T) {
	repo := &memRepo{insertErr: errStoreDown}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)
	e := NewPurchaseEntry(PurchaseEvent{PurchaseID: id.New(), DeviceID: "d", UserID: "u", Status: entity.PurchaseDelivered})

	written := r.Shadow(context.Background(), e)

	assert.False(t, written)
	require.Len(t, outbox.deferred, 1)
	assert.Equal(t, e.ID, outbox.deferred[0].ID)
	assert.Empty(t, outbox.recorded)
}

func TestShadow_SwallowsDeferralFailure(t *testing.T) {
	repo := &memRepo{insertErr: errStoreDown}
	outbox := &memOutbox{deferErr: errors.New("outbox full")}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)

	assert.NotPanics(t, func() {
		assert.False(t, r.Shadow(context.Background(), NewManualEntry(ManualEvent{DeviceID: "d", UserID: "u", Type: ManualDebit})))
	})
}

func TestShadow_DefersInsideSavepoint(t *testing.T) {
	sp := &depthSavepoint{}
	outbox := &memOutbox{sp: sp}
	r := NewRecorder(&memRepo{insertErr: errStoreDown}, sp, outbox)

	assert.False(t, r.Shadow(context.Background(), NewManualEntry(ManualEvent{DeviceID: "d", UserID: "u", Type: ManualDebit})))

	assert.Equal(t, []int{1}, outbox.deferDepths)
	assert.Equal(t, 2, sp.calls)
	assert.Zero(t, sp.depth)
}

func TestShadow_Success(t *testing.T) {
	repo := &memRepo{}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)

	assert.True(t, r.Shadow(context.Background(), NewManualEntry(ManualEvent{DeviceID: "d", UserID: "u", Type: ManualDebit})))
	assert.Len(t, repo.entries, 1)
	assert.Len(t, outbox.recorded, 1)
	assert.Empty(t, outbox.deferred)
}

func TestRecordSaleAdjustment(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, tx.Passthrough{}, nil)
	target := AdjustmentTarget{ReferenceID: id.New(), DeviceID: "d", UserID: "u"}

	entryID := r.RecordSaleAdjustment(context.Background(), SaleAdjustmentRequest{
		Target:   target,
		Previous: saleSnap(entity.SaleCompleted, "100", "0", "40"),
		Next:     saleSnap(entity.SaleCompleted, "100", "0", "40"),
	})
	assert.Nil(t, entryID, "no change must not write a row")
	assert.Empty(t, repo.entries)

	entryID = r.RecordSaleAdjustment(context.Background(), SaleAdjustmentRequest{
		Target:   target,
		Previous: saleSnap(entity.SaleCompleted, "100", "0", "40"),
		Next:     saleSnap(entity.SaleCancelled, "100", "0", "40"),
	})
	require.NotNil(t, entryID)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, *entryID, repo.entries[0].ID)
	assert.Equal(t, RefSale, repo.entries[0].ReferenceType)
	assert.Contains(t, repo.entries[0].Description, "[cancel]")
	assertMoney(t, "100", repo.entries[0].DebitAmount, "debit")
	assertMoney(t, "-40", repo.entries[0].CostAmount, "cost")
}

func TestRecordSaleAdjustment_DefersOnFailure(t *testing.T) {
	repo := &memRepo{insertErr: errStoreDown}
	outbox := &memOutbox{}
	r := NewRecorder(repo, tx.Passthrough{}, outbox)

	entryID := r.RecordSaleAdjustment(context.Background(), SaleAdjustmentRequest{
		Target:   AdjustmentTarget{ReferenceID: id.New(), DeviceID: "d", UserID: "u"},
		Previous: saleSnap(entity.SaleCredit, "0", "0", "40"),
		Next:     saleSnap(entity.SaleCredit, "50", "0", "40"),
	})

	require.NotNil(t, entryID)
	require.Len(t, outbox.deferred, 1)
	assert.Equal(t, *entryID, outbox.deferred[0].ID)
}

func TestRecordPurchaseAdjustment(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, tx.Passthrough{}, nil)
	target := AdjustmentTarget{ReferenceID: id.New(), DeviceID: "d", UserID: "u"}
	prev := PurchaseSnapshot{TotalAmount: money("200"), ReceivedAmount: money("50"), Status: entity.PurchaseCredit}

	assert.Nil(t, r.RecordPurchaseAdjustment(context.Background(), PurchaseAdjustmentRequest{
		Target: target, Previous: prev, Next: prev,
	}))

	next := prev
	next.ReceivedAmount = money("120")
	entryID := r.RecordPurchaseAdjustment(context.Background(), PurchaseAdjustmentRequest{
		Target: target, Previous: prev, Next: next,
	})

	require.NotNil(t, entryID)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, RefPurchase, repo.entries[0].ReferenceType)
	assert.Contains(t, repo.entries[0].Description, "[edit]")
	assertMoney(t, "70", repo.entries[0].DebitAmount, "debit")
}

func TestDeleteForReference(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, tx.Passthrough{}, nil)
	saleID := id.New()
	other := id.New()

	for _, ref := range []id.ID{saleID, saleID, other} {
		require.NoError(t, r.Record(context.Background(), NewSaleEntry(SaleEvent{SaleID: ref, DeviceID: "d", UserID: "u", Status: entity.SaleCredit})))
	}

	require.NoError(t, r.DeleteForReference(context.Background(), "d", RefSale, saleID))

	left, err := r.ListForReference(context.Background(), "d", RefSale, other)
	require.NoError(t, err)
	assert.Len(t, left, 1)
	assert.Len(t, repo.entries, 1)
}
