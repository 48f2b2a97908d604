package service

import (
	"context"
	"testing"

	"almacenpos/internal/apierror"
	"almacenpos/internal/cache"
	"almacenpos/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCliente_CrearActualizarEliminar(t *testing.T) {
	repo := newStubClienteRepo()
	aud := &stubAuditor{}
	c := cache.New()
	svc := NewClienteService(repo, c, aud, &stubPublicador{})
	ctx := context.Background()

	creado, err := svc.Crear(ctx, admin, dto.CrearClienteRequest{Nombre: " Comercial Lopez ", RUC: "80012345-6"})
	require.NoError(t, err)
	assert.Equal(t, "Comercial Lopez", creado.Nombre)

	lista, err := svc.Listar(ctx, dto.ClienteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, lista.Total)
	_, ok := c.Get(cache.Clientes)
	assert.True(t, ok)

	tel := "0981 123456"
	id := uuid.MustParse(creado.ID)
	act, err := svc.Actualizar(ctx, admin, id, dto.ActualizarClienteRequest{Telefono: &tel})
	require.NoError(t, err)
	assert.Equal(t, tel, act.Telefono)
	_, ok = c.Get(cache.Clientes)
	assert.False(t, ok)

	require.NoError(t, svc.Eliminar(ctx, admin, id))
	_, err = svc.ObtenerPorID(ctx, id)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	assert.Equal(t, []string{"clientes:crear", "clientes:actualizar", "clientes:eliminar"}, aud.acciones())
}

func TestCliente_ListarPorRUC(t *testing.T) {
	repo := newStubClienteRepo()
	svc := NewClienteService(repo, cache.New(), nil, nil)
	ctx := context.Background()
	_, _ = svc.Crear(ctx, admin, dto.CrearClienteRequest{Nombre: "Lopez", RUC: "80012345-6"})
	_, _ = svc.Crear(ctx, admin, dto.CrearClienteRequest{Nombre: "Gomez", RUC: "4567890-1"})

	resp, err := svc.Listar(ctx, dto.ClienteFilter{RUC: "800"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Lopez", resp.Data[0].Nombre)
}

func TestCliente_EliminarInexistente(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo(), cache.New(), nil, nil)
	err := svc.Eliminar(context.Background(), admin, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
