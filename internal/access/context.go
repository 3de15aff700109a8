package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gestaocelulas/igreja/internal/rbac"
	"github.com/gestaocelulas/igreja/internal/repo"
)

var (
	// ErrSessionInvalid indica token estruturalmente válido cujo vínculo
	// não está mais ativo (usuário, igreja ou vínculo desativados).
	ErrSessionInvalid = errors.New("sessão inválida")
)

// Context é o contexto de acesso de uma requisição: identidade, igreja,
// papel e o conjunto de ids visíveis. Construído do zero a cada requisição
// e descartado na resposta; os conjuntos de ids são um snapshot do momento
// da montagem.
type Context struct {
	UsuarioID  uuid.UUID
	Nome       string
	Email      string
	IgrejaID   uuid.UUID
	IgrejaNome string
	Papel      rbac.Role
	Escopo     rbac.ScopeKind

	// RedeIDs é preenchido apenas quando Escopo = rede; CelulaIDs apenas
	// quando Escopo = celula. Conjunto vazio é estado válido: o líder
	// autenticado sem provisionamento enxerga nada.
	RedeIDs   []uuid.UUID
	CelulaIDs []uuid.UUID
}

// RedeVisivel informa se o ator pode atuar sobre a rede.
func (c *Context) RedeVisivel(redeID uuid.UUID) bool {
	switch c.Escopo {
	case rbac.ScopeAll:
		return true
	case rbac.ScopeRede:
		return containsID(c.RedeIDs, redeID)
	default:
		return false
	}
}

// CelulaVisivel informa se o ator pode atuar sobre a célula. Para escopo de
// rede a visibilidade deriva da rede à qual a célula pertence.
func (c *Context) CelulaVisivel(celulaID, redeID uuid.UUID) bool {
	switch c.Escopo {
	case rbac.ScopeAll:
		return true
	case rbac.ScopeRede:
		return containsID(c.RedeIDs, redeID)
	case rbac.ScopeCelula:
		return containsID(c.CelulaIDs, celulaID)
	default:
		return false
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Repository é a fatia de consultas necessária para montar o contexto.
type Repository interface {
	GetMembership(ctx context.Context, usuarioID, igrejaID uuid.UUID) (repo.Membership, error)
	ListRedeIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error)
	ListCelulaIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error)
}

// Builder monta o contexto de acesso a partir do vínculo ativo.
type Builder struct {
	repo Repository
}

// NewBuilder cria um montador de contexto.
func NewBuilder(r Repository) *Builder {
	return &Builder{repo: r}
}

// Build é a fonte única de verdade de "esta sessão continua válida":
// reconsulta o vínculo a cada requisição em vez de confiar em claims
// cacheadas. Vínculo ausente ou inativo vira ErrSessionInvalid; erros de
// banco sobem como fatais.
func (b *Builder) Build(ctx context.Context, usuarioID, igrejaID uuid.UUID) (*Context, error) {
	membership, err := b.repo.GetMembership(ctx, usuarioID, igrejaID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	papel, err := rbac.Normalize(membership.Papel)
	if err != nil {
		return nil, fmt.Errorf("vínculo com papel desconhecido %q: %w", membership.Papel, err)
	}

	ac := &Context{
		UsuarioID:  membership.UsuarioID,
		Nome:       membership.Nome,
		Email:      membership.Email,
		IgrejaID:   membership.IgrejaID,
		IgrejaNome: membership.IgrejaNome,
		Papel:      papel,
		Escopo:     rbac.ScopeOf(papel),
	}

	switch ac.Escopo {
	case rbac.ScopeRede:
		ac.RedeIDs, err = b.repo.ListRedeIDsByLider(ctx, igrejaID, usuarioID)
	case rbac.ScopeCelula:
		ac.CelulaIDs, err = b.repo.ListCelulaIDsByLider(ctx, igrejaID, usuarioID)
	}
	if err != nil {
		return nil, err
	}

	return ac, nil
}

type contextKey struct{}

// WithContext injeta o contexto de acesso no context da requisição.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext recupera o contexto de acesso injetado pelo middleware.
func FromContext(ctx context.Context) (*Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(*Context)
	return ac, ok
}
