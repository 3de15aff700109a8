package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocelulas/igreja/internal/rbac"
	"github.com/gestaocelulas/igreja/internal/repo"
)

type stubAccessRepo struct {
	membership repo.Membership
	err        error
	redeIDs    []uuid.UUID
	celulaIDs  []uuid.UUID
	listErr    error
}

func (s *stubAccessRepo) GetMembership(ctx context.Context, usuarioID, igrejaID uuid.UUID) (repo.Membership, error) {
	if s.err != nil {
		return repo.Membership{}, s.err
	}
	return s.membership, nil
}

func (s *stubAccessRepo) ListRedeIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	return s.redeIDs, s.listErr
}

func (s *stubAccessRepo) ListCelulaIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	return s.celulaIDs, s.listErr
}

func membershipFixture(papel string) repo.Membership {
	return repo.Membership{
		UsuarioID:  uuid.New(),
		Nome:       "Maria",
		Email:      "maria@exemplo.com",
		IgrejaID:   uuid.New(),
		IgrejaNome: "Graça Viva",
		Papel:      papel,
	}
}

func TestBuildAdminGeral(t *testing.T) {
	stub := &stubAccessRepo{membership: membershipFixture("admin_geral")}
	builder := NewBuilder(stub)

	ac, err := builder.Build(context.Background(), stub.membership.UsuarioID, stub.membership.IgrejaID)
	require.NoError(t, err)

	assert.Equal(t, rbac.RoleAdminGeral, ac.Papel)
	assert.Equal(t, rbac.ScopeAll, ac.Escopo)
	assert.Empty(t, ac.RedeIDs)
	assert.Empty(t, ac.CelulaIDs)
	assert.Equal(t, "Graça Viva", ac.IgrejaNome)
}

func TestBuildNormalizaPapelLegado(t *testing.T) {
	stub := &stubAccessRepo{membership: membershipFixture("owner")}
	builder := NewBuilder(stub)

	ac, err := builder.Build(context.Background(), stub.membership.UsuarioID, stub.membership.IgrejaID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdminGeral, ac.Papel)
}

func TestBuildPastorRedeCarregaRedes(t *testing.T) {
	redes := []uuid.UUID{uuid.New(), uuid.New()}
	stub := &stubAccessRepo{membership: membershipFixture("pastor_rede"), redeIDs: redes}
	builder := NewBuilder(stub)

	ac, err := builder.Build(context.Background(), stub.membership.UsuarioID, stub.membership.IgrejaID)
	require.NoError(t, err)

	assert.Equal(t, rbac.ScopeRede, ac.Escopo)
	assert.Equal(t, redes, ac.RedeIDs)
	assert.Empty(t, ac.CelulaIDs)
}

func TestBuildLiderSemProvisionamento(t *testing.T) {
	// líder autenticado sem células atribuídas: contexto válido que enxerga nada
	stub := &stubAccessRepo{membership: membershipFixture("lider_celula")}
	builder := NewBuilder(stub)

	ac, err := builder.Build(context.Background(), stub.membership.UsuarioID, stub.membership.IgrejaID)
	require.NoError(t, err)

	assert.Equal(t, rbac.ScopeCelula, ac.Escopo)
	assert.Empty(t, ac.CelulaIDs)
	assert.False(t, ac.CelulaVisivel(uuid.New(), uuid.New()))
}

func TestBuildSemVinculo(t *testing.T) {
	stub := &stubAccessRepo{err: repo.ErrNotFound}
	builder := NewBuilder(stub)

	_, err := builder.Build(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestBuildErroDeBancoSobeFatal(t *testing.T) {
	boom := errors.New("conexão caiu")
	stub := &stubAccessRepo{err: boom}
	builder := NewBuilder(stub)

	_, err := builder.Build(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSessionInvalid)
}

func TestBuildPapelCorrompido(t *testing.T) {
	stub := &stubAccessRepo{membership: membershipFixture("superuser")}
	builder := NewBuilder(stub)

	_, err := builder.Build(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, rbac.ErrInvalidRole)
}

func TestRequire(t *testing.T) {
	lider := &Context{Papel: rbac.RoleLiderCelula, Escopo: rbac.ScopeCelula}

	// lider_celula jamais enxerga o módulo do pastor presidente
	assert.ErrorIs(t, Require(lider, rbac.ModulePastorPresidente, rbac.ActionView), ErrForbidden)
	assert.NoError(t, Require(lider, rbac.ModuleDiscipleship, rbac.ActionCreate))

	admin := &Context{Papel: rbac.RoleAdminGeral, Escopo: rbac.ScopeAll}
	assert.NoError(t, Require(admin, rbac.ModulePastorPresidente, rbac.ActionView))

	assert.ErrorIs(t, Require(nil, rbac.ModuleDashboard, rbac.ActionView), ErrForbidden)
}

func TestVisibilidadePorEscopo(t *testing.T) {
	rede := uuid.New()
	celula := uuid.New()

	admin := &Context{Escopo: rbac.ScopeAll}
	assert.True(t, admin.RedeVisivel(rede))
	assert.True(t, admin.CelulaVisivel(celula, rede))

	pastor := &Context{Escopo: rbac.ScopeRede, RedeIDs: []uuid.UUID{rede}}
	assert.True(t, pastor.RedeVisivel(rede))
	assert.False(t, pastor.RedeVisivel(uuid.New()))
	// célula visível apenas quando a rede dela pertence ao conjunto
	assert.True(t, pastor.CelulaVisivel(celula, rede))
	assert.False(t, pastor.CelulaVisivel(celula, uuid.New()))

	lider := &Context{Escopo: rbac.ScopeCelula, CelulaIDs: []uuid.UUID{celula}}
	assert.False(t, lider.RedeVisivel(rede))
	assert.True(t, lider.CelulaVisivel(celula, rede))
	assert.False(t, lider.CelulaVisivel(uuid.New(), rede))
}
