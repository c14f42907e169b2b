package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/model"
	"delivery-service/internal/repository/memory"
)

func newLogisticsTestService() *LogisticsService {
	return NewLogisticsService(memory.NewParcelRepository(), memory.NewBoxRepository())
}

func TestCreateParcel(t *testing.T) {
	svc := newLogisticsTestService()

	parcel, err := svc.CreateParcel(context.Background(), &model.Parcel{
		Size:          model.SizeMedium,
		Destination:   "42 Fjord Street, Bergen",
		IsFragile:     true,
		UserID:        "u-1",
		DeliveryBoxID: "box-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, parcel.ParcelID)
	assert.Equal(t, "CREATED", parcel.Status)
	assert.Positive(t, parcel.CreatedAt)
}

func TestCreateParcelValidation(t *testing.T) {
	svc := newLogisticsTestService()
	ctx := context.Background()

	cases := []struct {
		name   string
		parcel model.Parcel
	}{
		{"unknown size", model.Parcel{Size: "HUGE", Destination: "somewhere"}},
		{"blank destination", model.Parcel{Size: model.SizeSmall, Destination: "   "}},
		{"long destination", model.Parcel{Size: model.SizeSmall, Destination: strings.Repeat("x", 101)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateParcel(ctx, &tc.parcel)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAssignCourier(t *testing.T) {
	svc := newLogisticsTestService()
	ctx := context.Background()

	parcel, err := svc.CreateParcel(ctx, &model.Parcel{
		Size:        model.SizeSmall,
		Destination: "Oslo",
	})
	require.NoError(t, err)

	require.NoError(t, svc.AssignCourier(ctx, parcel.ParcelID, "courier-7"))

	parcels, err := svc.ListParcels(ctx)
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "courier-7", parcels[0].CourierID)
}

func TestAssignCourierFailures(t *testing.T) {
	svc := newLogisticsTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.AssignCourier(ctx, "", "courier-7"), ErrInvalidInput)
	assert.ErrorIs(t, svc.AssignCourier(ctx, "p-1", "  "), ErrInvalidInput)
	assert.ErrorIs(t, svc.AssignCourier(ctx, "p-missing", "courier-7"), ErrNotFound)
}

func TestCreateBox(t *testing.T) {
	svc := newLogisticsTestService()

	box, err := svc.CreateBox(context.Background(), &model.DeliveryBox{
		Type:      model.BoxLarge,
		Address:   "1 Harbour Road, Trondheim",
		IsSecured: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, box.BoxID)
	assert.Equal(t, "CREATED", box.Status)
}

func TestCreateBoxValidation(t *testing.T) {
	svc := newLogisticsTestService()
	ctx := context.Background()

	_, err := svc.CreateBox(ctx, &model.DeliveryBox{Type: "GIGANTIC", Address: "somewhere"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateBox(ctx, &model.DeliveryBox{Type: model.BoxSmall, Address: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateBox(ctx, &model.DeliveryBox{Type: model.BoxSmall, Address: strings.Repeat("y", 201)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
