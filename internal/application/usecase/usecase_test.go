package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/usecase"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/memory"
)

func TestProductUseCase_CreateYList(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewProductUseCase(memory.NewProductRepository(memory.NewStore()))

	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: " TOR-01 ", Name: "Tornillo", UnitOfMeasure: "und"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "TOR-01", p.SKU)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "tor-01", Name: "Otro", UnitOfMeasure: "und"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CLA-01", Name: "Clavo", UnitOfMeasure: "und"})
	require.NoError(t, err)

	list, err := uc.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Clavo", list.Items[0].Name)
	assert.Equal(t, 2, list.Page.Total)

	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWarehouseUseCase_NombreUnico(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewWarehouseUseCase(memory.NewWarehouseRepository(memory.NewStore()))

	w, err := uc.Create(ctx, dto.CreateWarehouseRequest{Name: "Central", Location: "Bogotá"})
	require.NoError(t, err)

	got, err := uc.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bogotá", got.Location)

	_, err = uc.Create(ctx, dto.CreateWarehouseRequest{Name: "central"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateWarehouseRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
