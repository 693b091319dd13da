package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

func q(units int64) types.Quantity { return types.NewQuantity(units) }

func TestComputeDeltas(t *testing.T) {
	a, b, c := id.New(), id.New(), id.New()

	tests := []struct {
		name        string
		prev, next  []Line
		was, should bool
		want        []Delta
	}{
		{
			name:   "create applies everything",
			next:   []Line{{a, q(2)}, {b, q(1)}},
			should: true,
			want:   []Delta{{a, q(2)}, {b, q(1)}},
		},
		{
			name: "create not applied writes nothing",
			next: []Line{{a, q(2)}},
			want: nil,
		},
		{
			name: "edit only touches changed quantities",
			prev: []Line{{a, q(2)}, {b, q(1)}},
			next: []Line{{a, q(2)}, {b, q(3)}, {c, q(1)}},
			was:  true, should: true,
			want: []Delta{{b, q(2)}, {c, q(1)}},
		},
		{
			name: "removed line is reversed after next lines",
			prev: []Line{{a, q(2)}, {b, q(1)}},
			next: []Line{{b, q(1)}},
			was:  true, should: true,
			want: []Delta{{a, q(-2)}},
		},
		{
			name: "deletion reverses everything",
			prev: []Line{{a, q(2)}, {b, q(1)}},
			was:  true,
			want: []Delta{{a, q(-2)}, {b, q(-1)}},
		},
		{
			name: "cancellation reverses even when lines are unchanged",
			prev: []Line{{a, q(2)}},
			next: []Line{{a, q(2)}},
			was:  true, should: false,
			want: []Delta{{a, q(-2)}},
		},
		{
			name: "duplicates are summed",
			next: []Line{{a, q(1)}, {b, q(1)}, {a, q(2)}},
			should: true,
			want:   []Delta{{a, q(3)}, {b, q(1)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDeltas(tt.prev, tt.next, tt.was, tt.should))
		})
	}
}

func TestReconcile_SaleDeductsAndRecordsHistory(t *testing.T) {
	repo := newMemStock()
	product := repo.addProduct("")
	service := repo.addService()
	saleID := id.New()

	applied, err := NewReconciler(repo).Reconcile(context.Background(), Change{
		Direction:   DirectionSale,
		ReferenceID: saleID,
		DeviceID:    "d",
		UserID:      "u",
		Next:        []Line{{service, q(1)}, {product, q(3)}},
		ShouldApply: true,
	})

	require.NoError(t, err)
	assert.Equal(t, []StockDelta{{ProductID: product, Delta: q(-3)}}, applied)
	assert.Equal(t, q(-3), repo.stock[product])
	_, touched := repo.stock[service]
	assert.False(t, touched, "services carry no stock")
	require.Len(t, repo.history, 1)
	assert.Equal(t, saleID, repo.history[0].ReferenceID)
	assert.Equal(t, "sale applied (-3.0000)", repo.history[0].Reason)
}

func TestReconcile_PurchaseAdds(t *testing.T) {
	repo := newMemStock()
	product := repo.addProduct("")

	_, err := NewReconciler(repo).Reconcile(context.Background(), Change{
		Direction:   DirectionPurchase,
		ReferenceID: id.New(),
		DeviceID:    "d",
		Next:        []Line{{product, q(5)}},
		ShouldApply: true,
	})

	require.NoError(t, err)
	assert.Equal(t, q(5), repo.stock[product])
}

func TestReconcile_UnknownItemFailsBeforeWriting(t *testing.T) {
	repo := newMemStock()
	product := repo.addProduct("")
	ghost := id.New()

	_, err := NewReconciler(repo).Reconcile(context.Background(), Change{
		Direction:   DirectionSale,
		ReferenceID: id.New(),
		DeviceID:    "d",
		Next:        []Line{{product, q(1)}, {ghost, q(1)}},
		ShouldApply: true,
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))
	assert.Empty(t, repo.stock)
	assert.Empty(t, repo.history)
}

func TestCheckItems(t *testing.T) {
	repo := newMemStock()
	product := repo.addProduct("")
	service := repo.addService()
	r := NewReconciler(repo)
	ctx := context.Background()

	assert.NoError(t, r.CheckItems(ctx, "d", nil))
	assert.NoError(t, r.CheckItems(ctx, "d", []Line{{product, q(1)}, {service, q(1)}, {product, q(2)}}))

	err := r.CheckItems(ctx, "d", []Line{{product, q(1)}, {id.New(), q(0)}})
	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))

	repo.resolveErr = errors.New("conn reset")
	err = r.CheckItems(ctx, "d", []Line{{product, q(1)}})
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
}

func TestReconcile_AdjustFailureIsPersistenceError(t *testing.T) {
	repo := newMemStock()
	product := repo.addProduct("")
	repo.adjustErr = assert.AnError

	_, err := NewReconciler(repo).Reconcile(context.Background(), Change{
		Direction: DirectionSale, ReferenceID: id.New(), DeviceID: "d",
		Next: []Line{{product, q(1)}}, ShouldApply: true,
	})

	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
}

// Whatever the edit sequence, the history attributable to a sale adds up to
// the stock effect of its final state.
func TestReconcile_ReplayMatchesFinalState(t *testing.T) {
	repo := newMemStock()
	a := repo.addProduct("")
	b := repo.addProduct("")
	saleID := id.New()
	r := NewReconciler(repo)

	type state struct {
		lines   []Line
		applied bool
	}
	steps := []state{
		{lines: []Line{{a, q(2)}}, applied: false},             // credit, not delivered
		{lines: []Line{{a, q(2)}, {b, q(1)}}, applied: true},   // completed
		{lines: []Line{{a, q(5)}}, applied: true},              // quantities edited
		{lines: []Line{{a, q(5)}}, applied: false},             // cancelled
		{lines: []Line{{b, q(4)}, {a, q(1)}}, applied: true},   // reactivated with new lines
	}

	var prev state
	for _, next := range steps {
		_, err := r.Reconcile(context.Background(), Change{
			Direction:   DirectionSale,
			ReferenceID: saleID,
			DeviceID:    "d",
			Previous:    prev.lines,
			Next:        next.lines,
			WasApplied:  prev.applied,
			ShouldApply: next.applied,
		})
		require.NoError(t, err)
		prev = next
	}

	assert.Equal(t, q(-1), repo.historySum(saleID, a))
	assert.Equal(t, q(-4), repo.historySum(saleID, b))
	assert.Equal(t, q(-1), repo.stock[a])
	assert.Equal(t, q(-4), repo.stock[b])

	// deletion
	_, err := r.Reconcile(context.Background(), Change{
		Direction: DirectionSale, ReferenceID: saleID, DeviceID: "d",
		Previous: prev.lines, WasApplied: prev.applied,
	})
	require.NoError(t, err)
	assert.Equal(t, q(0), repo.historySum(saleID, a))
	assert.Equal(t, q(0), repo.stock[b])

	history, err := r.History(context.Background(), "d", DirectionSale, saleID)
	require.NoError(t, err)
	assert.Len(t, history, len(repo.history))
}
