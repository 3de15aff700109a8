package panel

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocelulas/igreja/internal/access"
	"github.com/gestaocelulas/igreja/internal/rbac"
)

// stubPanelRepo simula a persistência do painel em memória. A transferência
// é aplicada num snapshot e só promovida ao estado real quando todos os
// passos completam, espelhando o commit transacional.
type stubPanelRepo struct {
	redes         []Rede
	celulas       map[uuid.UUID]Celula
	participantes map[uuid.UUID]Participante
	transfers     []Transferencia
	nomenclatura  map[string]string
	consolidacoes map[uuid.UUID]Consolidacao
	reunioes      []ReuniaoGD
	emails        []EmailLog

	falhaAtivar bool
}

func newStubPanelRepo() *stubPanelRepo {
	return &stubPanelRepo{
		celulas:       make(map[uuid.UUID]Celula),
		participantes: make(map[uuid.UUID]Participante),
		nomenclatura:  make(map[string]string),
		consolidacoes: make(map[uuid.UUID]Consolidacao),
	}
}

func (s *stubPanelRepo) ListRedes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Rede, error) {
	return s.redes, nil
}

func (s *stubPanelRepo) GetRede(ctx context.Context, igrejaID, redeID uuid.UUID) (Rede, error) {
	for _, r := range s.redes {
		if r.ID == redeID {
			return r, nil
		}
	}
	return Rede{}, ErrNotFound
}

func (s *stubPanelRepo) ListCelulas(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Celula, error) {
	var out []Celula
	for _, c := range s.celulas {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubPanelRepo) ListCelulasByRede(ctx context.Context, igrejaID, redeID uuid.UUID) ([]Celula, error) {
	var out []Celula
	for _, c := range s.celulas {
		if c.RedeID == redeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubPanelRepo) GetCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) (Celula, error) {
	c, ok := s.celulas[celulaID]
	if !ok {
		return Celula{}, ErrNotFound
	}
	return c, nil
}

func (s *stubPanelRepo) ListParticipantesByCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) ([]Participante, error) {
	var out []Participante
	for _, p := range s.participantes {
		if p.CelulaID == celulaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPanelRepo) GetParticipante(ctx context.Context, igrejaID, participanteID uuid.UUID) (Participante, error) {
	p, ok := s.participantes[participanteID]
	if !ok {
		return Participante{}, ErrNotFound
	}
	return p, nil
}

func (s *stubPanelRepo) ContarKPIs(ctx context.Context, igrejaID uuid.UUID, esc Escopo) (KPIs, error) {
	return KPIs{
		Redes:         int64(len(s.redes)),
		Celulas:       int64(len(s.celulas)),
		Participantes: int64(len(s.participantes)),
	}, nil
}

func (s *stubPanelRepo) Buscar(ctx context.Context, igrejaID uuid.UUID, esc Escopo, termo string) (BuscaResultado, error) {
	return BuscaResultado{Celulas: []Celula{}, Participantes: []Participante{}}, nil
}

type stagedTransferOps struct {
	repo    *stubPanelRepo
	staging map[uuid.UUID]Participante
	moves   []Transferencia
}

func (o *stagedTransferOps) DesativarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error {
	p, ok := o.staging[participanteID]
	if !ok || p.CelulaID != celulaID {
		return ErrNotFound
	}
	p.CelulaID = uuid.Nil
	o.staging[participanteID] = p
	return nil
}

func (o *stagedTransferOps) AtivarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error {
	if o.repo.falhaAtivar {
		return errors.New("falha simulada no vínculo de destino")
	}
	p, ok := o.staging[participanteID]
	if !ok {
		return ErrNotFound
	}
	p.CelulaID = celulaID
	o.staging[participanteID] = p
	return nil
}

func (o *stagedTransferOps) RegistrarTransferencia(ctx context.Context, t Transferencia) error {
	o.moves = append(o.moves, t)
	return nil
}

func (s *stubPanelRepo) WithTransfer(ctx context.Context, fn func(ops TransferOps) error) error {
	staging := make(map[uuid.UUID]Participante, len(s.participantes))
	for id, p := range s.participantes {
		staging[id] = p
	}
	ops := &stagedTransferOps{repo: s, staging: staging}

	if err := fn(ops); err != nil {
		return err
	}

	s.participantes = ops.staging
	s.transfers = append(s.transfers, ops.moves...)
	return nil
}

func (s *stubPanelRepo) GetNomenclatura(ctx context.Context, igrejaID uuid.UUID) (map[string]string, error) {
	out := make(map[string]string, len(s.nomenclatura))
	for k, v := range s.nomenclatura {
		out[k] = v
	}
	return out, nil
}

func (s *stubPanelRepo) SaveNomenclatura(ctx context.Context, igrejaID uuid.UUID, rotulos map[string]string) error {
	for k, v := range rotulos {
		s.nomenclatura[k] = v
	}
	return nil
}

func (s *stubPanelRepo) RestoreNomenclatura(ctx context.Context, igrejaID uuid.UUID) error {
	s.nomenclatura = NomenclaturaPadrao()
	return nil
}

func (s *stubPanelRepo) ListReunioesGD(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]ReuniaoGD, error) {
	return s.reunioes, nil
}

func (s *stubPanelRepo) CreateReuniaoGD(ctx context.Context, igrejaID uuid.UUID, reuniao ReuniaoGD) (ReuniaoGD, error) {
	reuniao.ID = uuid.New()
	s.reunioes = append(s.reunioes, reuniao)
	return reuniao, nil
}

func (s *stubPanelRepo) ListEmails(ctx context.Context, igrejaID uuid.UUID) ([]EmailLog, error) {
	return s.emails, nil
}

func (s *stubPanelRepo) CreateEmail(ctx context.Context, igrejaID uuid.UUID, email EmailLog) (EmailLog, error) {
	email.ID = uuid.New()
	s.emails = append(s.emails, email)
	return email, nil
}

func (s *stubPanelRepo) ListLideres(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Lider, error) {
	var out []Lider
	for _, p := range s.participantes {
		if p.Categoria != CategoriaMembro {
			out = append(out, Lider{ID: p.ID, CelulaID: p.CelulaID, Nome: p.Nome, Categoria: p.Categoria})
		}
	}
	return out, nil
}

func (s *stubPanelRepo) UpdateParticipanteCategoria(ctx context.Context, igrejaID, participanteID uuid.UUID, categoria string) error {
	p, ok := s.participantes[participanteID]
	if !ok {
		return ErrNotFound
	}
	p.Categoria = categoria
	s.participantes[participanteID] = p
	return nil
}

func (s *stubPanelRepo) ListConsolidacoes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Consolidacao, error) {
	var out []Consolidacao
	for _, c := range s.consolidacoes {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubPanelRepo) GetConsolidacao(ctx context.Context, igrejaID, id uuid.UUID) (Consolidacao, error) {
	c, ok := s.consolidacoes[id]
	if !ok {
		return Consolidacao{}, ErrNotFound
	}
	return c, nil
}

func (s *stubPanelRepo) CreateConsolidacao(ctx context.Context, igrejaID uuid.UUID, c Consolidacao) (Consolidacao, error) {
	c.ID = uuid.New()
	s.consolidacoes[c.ID] = c
	return c, nil
}

func (s *stubPanelRepo) UpdateConsolidacao(ctx context.Context, igrejaID, id uuid.UUID, status string, observacao *string) error {
	c, ok := s.consolidacoes[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.Observacao = observacao
	s.consolidacoes[id] = c
	return nil
}

func adminContext(igrejaID uuid.UUID) *access.Context {
	return &access.Context{
		UsuarioID:  uuid.New(),
		Nome:       "Admin",
		Email:      "admin@igreja.test",
		IgrejaID:   igrejaID,
		IgrejaNome: "Graça Viva",
		Papel:      rbac.RoleAdminGeral,
		Escopo:     rbac.ScopeAll,
	}
}

func liderContext(igrejaID uuid.UUID, celulaIDs ...uuid.UUID) *access.Context {
	return &access.Context{
		UsuarioID: uuid.New(),
		IgrejaID:  igrejaID,
		Papel:     rbac.RoleLiderCelula,
		Escopo:    rbac.ScopeCelula,
		CelulaIDs: celulaIDs,
	}
}

func fixtureTransferRepo(t *testing.T) (*stubPanelRepo, Celula, Celula, Participante) {
	t.Helper()

	repo := newStubPanelRepo()
	rede := Rede{ID: uuid.New(), Nome: "Rede Norte", Ativa: true}
	repo.redes = append(repo.redes, rede)

	origem := Celula{ID: uuid.New(), RedeID: rede.ID, RedeNome: rede.Nome, Nome: "Célula 1", Ativa: true}
	destino := Celula{ID: uuid.New(), RedeID: rede.ID, RedeNome: rede.Nome, Nome: "Célula 2", Ativa: true}
	repo.celulas[origem.ID] = origem
	repo.celulas[destino.ID] = destino

	participante := Participante{ID: uuid.New(), CelulaID: origem.ID, RedeID: rede.ID, Nome: "Maria", Categoria: CategoriaMembro, Ativo: true}
	repo.participantes[participante.ID] = participante

	return repo, origem, destino, participante
}

func TestTransferirMoveParticipante(t *testing.T) {
	repo, origem, destino, participante := fixtureTransferRepo(t)
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	err := svc.Transferir(context.Background(), ac, TransferirInput{
		ParticipanteID:  participante.ID,
		CelulaOrigemID:  origem.ID,
		CelulaDestinoID: destino.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, destino.ID, repo.participantes[participante.ID].CelulaID)
	require.Len(t, repo.transfers, 1)
	assert.Equal(t, origem.ID, repo.transfers[0].CelulaOrigemID)
	assert.Equal(t, destino.ID, repo.transfers[0].CelulaDestinoID)
}

func TestTransferirAtomicidade(t *testing.T) {
	repo, origem, destino, participante := fixtureTransferRepo(t)
	repo.falhaAtivar = true
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	err := svc.Transferir(context.Background(), ac, TransferirInput{
		ParticipanteID:  participante.ID,
		CelulaOrigemID:  origem.ID,
		CelulaDestinoID: destino.ID,
	})
	require.Error(t, err)

	// falha no meio da unidade não deixa efeito parcial
	assert.Equal(t, origem.ID, repo.participantes[participante.ID].CelulaID)
	assert.Empty(t, repo.transfers)
}

func TestTransferirMesmaCelula(t *testing.T) {
	repo, origem, _, participante := fixtureTransferRepo(t)
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	err := svc.Transferir(context.Background(), ac, TransferirInput{
		ParticipanteID:  participante.ID,
		CelulaOrigemID:  origem.ID,
		CelulaDestinoID: origem.ID,
	})
	require.ErrorIs(t, err, ErrMesmaCelula)
}

func TestTransferirParticipanteForaDaOrigem(t *testing.T) {
	repo, _, destino, participante := fixtureTransferRepo(t)
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	outra := Celula{ID: uuid.New(), RedeID: repo.redes[0].ID, Nome: "Célula 3", Ativa: true}
	repo.celulas[outra.ID] = outra

	err := svc.Transferir(context.Background(), ac, TransferirInput{
		ParticipanteID:  participante.ID,
		CelulaOrigemID:  outra.ID,
		CelulaDestinoID: destino.ID,
	})
	require.ErrorIs(t, err, ErrParticipanteForaDaOrigem)
}

func TestTransferirForaDoEscopo(t *testing.T) {
	repo, origem, destino, participante := fixtureTransferRepo(t)
	svc := NewService(repo)

	// líder tem só view em cells_admin: gate barra antes da contenção
	ac := liderContext(uuid.New(), origem.ID, destino.ID)

	err := svc.Transferir(context.Background(), ac, TransferirInput{
		ParticipanteID:  participante.ID,
		CelulaOrigemID:  origem.ID,
		CelulaDestinoID: destino.ID,
	})
	require.ErrorIs(t, err, access.ErrForbidden)
}

func TestGetCelulaContencao(t *testing.T) {
	repo, origem, destino, _ := fixtureTransferRepo(t)
	svc := NewService(repo)
	igrejaID := uuid.New()

	visivel := liderContext(igrejaID, origem.ID)

	detalhe, err := svc.GetCelula(context.Background(), visivel, origem.ID)
	require.NoError(t, err)
	assert.Equal(t, origem.ID, detalhe.Celula.ID)
	require.Len(t, detalhe.Participantes, 1)

	_, err = svc.GetCelula(context.Background(), visivel, destino.ID)
	require.ErrorIs(t, err, access.ErrForbidden)
}

func TestListRedesNegadoParaLider(t *testing.T) {
	repo, origem, _, _ := fixtureTransferRepo(t)
	svc := NewService(repo)

	_, err := svc.ListRedes(context.Background(), liderContext(uuid.New(), origem.ID))
	require.ErrorIs(t, err, access.ErrForbidden)
}

func TestSessaoMontaMenuPorPapel(t *testing.T) {
	repo := newStubPanelRepo()
	repo.nomenclatura["dashboard"] = "Painel Central"
	svc := NewService(repo)

	ac := liderContext(uuid.New())
	ac.Nome = "Líder"
	ac.Email = "lider@igreja.test"

	sessao, err := svc.Sessao(context.Background(), ac)
	require.NoError(t, err)
	assert.Equal(t, string(rbac.RoleLiderCelula), sessao.Papel)

	byModulo := make(map[string]MenuItem, len(sessao.Menu))
	for _, item := range sessao.Menu {
		byModulo[item.Modulo] = item
	}

	// módulos sem nenhuma ação ficam fora do menu
	assert.NotContains(t, byModulo, string(rbac.ModulePastorPresidente))
	assert.NotContains(t, byModulo, string(rbac.ModulePastorRede))

	painel, ok := byModulo[string(rbac.ModuleDashboard)]
	require.True(t, ok)
	assert.Equal(t, "Painel Central", painel.Rotulo)
	assert.NotContains(t, painel.Acoes, string(rbac.ActionEdit))

	celulas, ok := byModulo[string(rbac.ModuleLiderCelula)]
	require.True(t, ok)
	assert.Contains(t, celulas.Acoes, string(rbac.ActionCreate))
}

func TestNomenclaturaCompletaComPadrao(t *testing.T) {
	repo := newStubPanelRepo()
	repo.nomenclatura["email"] = "Comunicados"
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	rotulos, err := svc.GetNomenclatura(context.Background(), ac)
	require.NoError(t, err)
	assert.Len(t, rotulos, len(rbac.Modules()))
	assert.Equal(t, "Comunicados", rotulos["email"])
	assert.Equal(t, "Células", rotulos["cells_admin"])
}

func TestSaveNomenclaturaValida(t *testing.T) {
	repo := newStubPanelRepo()
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	err := svc.SaveNomenclatura(context.Background(), ac, map[string]string{"modulo_fantasma": "X"})
	require.ErrorIs(t, err, ErrModuloInvalido)

	err = svc.SaveNomenclatura(context.Background(), ac, map[string]string{"dashboard": "   "})
	require.Error(t, err)

	err = svc.SaveNomenclatura(context.Background(), ac, map[string]string{"dashboard": "Visão Geral"})
	require.NoError(t, err)
	assert.Equal(t, "Visão Geral", repo.nomenclatura["dashboard"])
}

func TestSaveNomenclaturaNegadoParaLider(t *testing.T) {
	repo := newStubPanelRepo()
	svc := NewService(repo)

	err := svc.SaveNomenclatura(context.Background(), liderContext(uuid.New()), map[string]string{"dashboard": "X"})
	require.ErrorIs(t, err, access.ErrForbidden)
}

func TestPromoverParticipante(t *testing.T) {
	repo, _, _, participante := fixtureTransferRepo(t)
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	promovido, err := svc.PromoverParticipante(context.Background(), ac, participante.ID)
	require.NoError(t, err)
	assert.Equal(t, CategoriaLiderTreinamento, promovido.Categoria)

	promovido, err = svc.PromoverParticipante(context.Background(), ac, participante.ID)
	require.NoError(t, err)
	assert.Equal(t, CategoriaLider, promovido.Categoria)

	_, err = svc.PromoverParticipante(context.Background(), ac, participante.ID)
	require.ErrorIs(t, err, ErrJaLider)
}

func TestConsolidacaoFluxo(t *testing.T) {
	repo, origem, _, _ := fixtureTransferRepo(t)
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	criada, err := svc.CreateConsolidacao(context.Background(), ac, Consolidacao{
		CelulaID: origem.ID,
		Nome:     "João",
		Telefone: "83999990000",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNovo, criada.Status)

	err = svc.UpdateConsolidacao(context.Background(), ac, criada.ID, "status_invalido", nil)
	require.ErrorIs(t, err, ErrStatusInvalido)

	obs := "visitado"
	err = svc.UpdateConsolidacao(context.Background(), ac, criada.ID, StatusConsolidado, &obs)
	require.NoError(t, err)
	assert.Equal(t, StatusConsolidado, repo.consolidacoes[criada.ID].Status)
}

func TestCreateEmailRegistraAutor(t *testing.T) {
	repo := newStubPanelRepo()
	svc := NewService(repo)
	ac := adminContext(uuid.New())

	email, err := svc.CreateEmail(context.Background(), ac, EmailLog{
		Destinatario: "lideres@igreja.test",
		Assunto:      "Encontro de líderes",
		Corpo:        "Sábado às 19h",
	})
	require.NoError(t, err)
	assert.Equal(t, ac.UsuarioID, email.UsuarioID)

	_, err = svc.CreateEmail(context.Background(), ac, EmailLog{Destinatario: "não é email", Assunto: "x"})
	require.Error(t, err)
}
