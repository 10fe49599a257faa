package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	client := setupInventoryTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
	svc, err := NewService(NewRepository(client.DB()), client, logg)
	require.NoError(t, err)
	return svc, client
}

func TestAddRecordsMovementWithSnapshots(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	productID := uuid.New()
	movement, err := svc.Add(ctx, nil, MovementInput{ProductID: productID, Quantity: 10, Actor: "admin", Reason: "initial delivery"})
	require.NoError(t, err)

	assert.Equal(t, enums.MovementIn, movement.Type)
	assert.Equal(t, 0, movement.Before)
	assert.Equal(t, 10, movement.After)
	assert.Equal(t, "admin", movement.Actor)

	qty, err := svc.Quantity(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
}

func TestRemoveRecordsMovementWithSnapshots(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	productID := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: productID, Quantity: 10})
	require.NoError(t, err)

	movement, err := svc.Remove(ctx, nil, MovementInput{ProductID: productID, Quantity: 4, Reason: "order"})
	require.NoError(t, err)

	assert.Equal(t, enums.MovementOut, movement.Type)
	assert.Equal(t, 10, movement.Before)
	assert.Equal(t, 6, movement.After)
	assert.Equal(t, "system", movement.Actor)

	qty, err := svc.Quantity(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 6, qty)
}

func TestRemoveInsufficientStockFails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	productID := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: productID, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Remove(ctx, nil, MovementInput{ProductID: productID, Quantity: 3})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeOutOfStock, appErr.Code())

	qty, err := svc.Quantity(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, qty, "failed withdrawal must not change stock")

	page, err := svc.Movements(ctx, productID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1, "only the receipt should be logged")
}

func TestRemoveRollsBackWhenMovementInsertFails(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	productID := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: productID, Quantity: 5})
	require.NoError(t, err)

	// breaking the movement log forces the withdrawal to abort
	require.NoError(t, client.DB().Exec("DROP TABLE stock_movements").Error)

	_, err = svc.Remove(ctx, nil, MovementInput{ProductID: productID, Quantity: 2})
	require.Error(t, err)

	qty, err := svc.Quantity(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 5, qty, "decrement must roll back with the failed movement insert")
}

func TestAdjustRecordsDelta(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	productID := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: productID, Quantity: 8})
	require.NoError(t, err)

	movement, err := svc.Adjust(ctx, nil, AdjustInput{ProductID: productID, TargetQuantity: 3, Actor: "admin", Reason: "stock count"})
	require.NoError(t, err)

	assert.Equal(t, enums.MovementAdjust, movement.Type)
	assert.Equal(t, -5, movement.Quantity)
	assert.Equal(t, 8, movement.Before)
	assert.Equal(t, 3, movement.After)

	qty, err := svc.Quantity(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestAdjustUnknownProductStartsFromZero(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	productID := uuid.New()
	movement, err := svc.Adjust(ctx, nil, AdjustInput{ProductID: productID, TargetQuantity: 6})
	require.NoError(t, err)

	assert.Equal(t, 0, movement.Before)
	assert.Equal(t, 6, movement.After)
	assert.Equal(t, 6, movement.Quantity)
}

func TestMovementInputValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []MovementInput{
		{ProductID: uuid.Nil, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 0},
		{ProductID: uuid.New(), Quantity: -2},
	}
	for _, input := range cases {
		_, err := svc.Add(ctx, nil, input)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

		_, err = svc.Remove(ctx, nil, input)
		appErr = pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}

	_, err := svc.Adjust(ctx, nil, AdjustInput{ProductID: uuid.New(), TargetQuantity: -1})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestStocksListsCurrentQuantities(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first := uuid.New()
	second := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: first, Quantity: 7})
	require.NoError(t, err)
	_, err = svc.Add(ctx, nil, MovementInput{ProductID: second, Quantity: 3})
	require.NoError(t, err)

	page, err := svc.Stocks(ctx, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	quantities := map[uuid.UUID]int{}
	for _, item := range page.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, 7, quantities[first])
	assert.Equal(t, 3, quantities[second])
}

func TestMovementsWithoutProductSpansCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first := uuid.New()
	second := uuid.New()
	_, err := svc.Add(ctx, nil, MovementInput{ProductID: first, Quantity: 5})
	require.NoError(t, err)
	_, err = svc.Add(ctx, nil, MovementInput{ProductID: second, Quantity: 2})
	require.NoError(t, err)

	all, err := svc.Movements(ctx, uuid.Nil, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	scoped, err := svc.Movements(ctx, first, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, scoped.Items, 1)
	assert.Equal(t, first, scoped.Items[0].ProductID)
}
