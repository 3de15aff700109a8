package panel

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaocelulas/igreja/internal/access"
	"github.com/gestaocelulas/igreja/internal/rbac"
	"github.com/gestaocelulas/igreja/internal/util"
)

var (
	ErrMesmaCelula              = util.Invalid("célula de origem e destino são a mesma")
	ErrParticipanteForaDaOrigem = util.Invalid("participante não pertence à célula de origem")
	ErrStatusInvalido           = util.Invalid("status de consolidação inválido")
	ErrModuloInvalido           = util.Invalid("módulo desconhecido na nomenclatura")
	ErrJaLider                  = util.Invalid("participante já é líder")
)

// Statuses de acompanhamento de consolidação.
const (
	StatusNovo             = "novo"
	StatusEmAcompanhamento = "em_acompanhamento"
	StatusConsolidado      = "consolidado"
)

// StatusValido informa se o status pertence ao conjunto aceito.
func StatusValido(status string) bool {
	switch status {
	case StatusNovo, StatusEmAcompanhamento, StatusConsolidado:
		return true
	}
	return false
}

// Service concentra as operações do painel. Toda operação recebe o
// contexto de acesso já montado e valida gate + contenção antes de tocar
// no repositório.
type Service struct {
	repo Repository
}

// NewService cria o serviço do painel.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sessao descreve a sessão corrente devolvida ao painel.
type Sessao struct {
	UsuarioID  uuid.UUID  `json:"usuario_id"`
	Nome       string     `json:"nome"`
	Email      string     `json:"email"`
	IgrejaID   uuid.UUID  `json:"igreja_id"`
	IgrejaNome string     `json:"igreja_nome"`
	Papel      string     `json:"papel"`
	Escopo     string     `json:"escopo"`
	Menu       []MenuItem `json:"menu"`
}

// MenuItem é uma entrada de menu: módulo, rótulo configurado e ações
// permitidas ao papel.
type MenuItem struct {
	Modulo string   `json:"modulo"`
	Rotulo string   `json:"rotulo"`
	Acoes  []string `json:"acoes"`
}

// Sessao monta a visão de sessão: identidade + menu derivado da matriz de
// permissões cruzada com a nomenclatura da igreja.
func (s *Service) Sessao(ctx context.Context, ac *access.Context) (Sessao, error) {
	rotulos, err := s.repo.GetNomenclatura(ctx, ac.IgrejaID)
	if err != nil {
		return Sessao{}, err
	}

	var menu []MenuItem
	for _, modulo := range rbac.Modules() {
		permitidas := rbac.AllowedActions(ac.Papel, modulo)
		if len(permitidas) == 0 {
			continue
		}
		acoes := make([]string, 0, len(permitidas))
		for _, acao := range rbac.Actions() {
			if permitidas.Has(acao) {
				acoes = append(acoes, string(acao))
			}
		}
		rotulo, ok := rotulos[string(modulo)]
		if !ok {
			rotulo = nomenclaturaPadrao[modulo]
		}
		menu = append(menu, MenuItem{Modulo: string(modulo), Rotulo: rotulo, Acoes: acoes})
	}

	return Sessao{
		UsuarioID:  ac.UsuarioID,
		Nome:       ac.Nome,
		Email:      ac.Email,
		IgrejaID:   ac.IgrejaID,
		IgrejaNome: ac.IgrejaNome,
		Papel:      string(ac.Papel),
		Escopo:     string(ac.Escopo),
		Menu:       menu,
	}, nil
}

// Dashboard devolve os KPIs do recorte visível ao ator.
func (s *Service) Dashboard(ctx context.Context, ac *access.Context) (KPIs, error) {
	if err := access.Require(ac, rbac.ModuleDashboard, rbac.ActionView); err != nil {
		return KPIs{}, err
	}
	return s.repo.ContarKPIs(ctx, ac.IgrejaID, EscopoDe(ac))
}

// Buscar procura células e participantes pelo termo, dentro do escopo.
func (s *Service) Buscar(ctx context.Context, ac *access.Context, termo string) (BuscaResultado, error) {
	if err := access.Require(ac, rbac.ModuleDashboard, rbac.ActionView); err != nil {
		return BuscaResultado{}, err
	}
	termo = strings.TrimSpace(termo)
	if termo == "" {
		return BuscaResultado{Celulas: []Celula{}, Participantes: []Participante{}}, nil
	}
	return s.repo.Buscar(ctx, ac.IgrejaID, EscopoDe(ac), termo)
}

// ListCelulas devolve as células visíveis.
func (s *Service) ListCelulas(ctx context.Context, ac *access.Context) ([]Celula, error) {
	if err := access.Require(ac, rbac.ModuleCellsAdmin, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListCelulas(ctx, ac.IgrejaID, EscopoDe(ac))
}

// CelulaDetalhe é a visão de relatório de uma célula.
type CelulaDetalhe struct {
	Celula        Celula         `json:"celula"`
	Participantes []Participante `json:"participantes"`
}

// GetCelula devolve a célula com participantes, se visível ao ator.
func (s *Service) GetCelula(ctx context.Context, ac *access.Context, celulaID uuid.UUID) (CelulaDetalhe, error) {
	if err := access.Require(ac, rbac.ModuleLiderCelula, rbac.ActionView); err != nil {
		return CelulaDetalhe{}, err
	}

	celula, err := s.repo.GetCelula(ctx, ac.IgrejaID, celulaID)
	if err != nil {
		return CelulaDetalhe{}, err
	}
	if !ac.CelulaVisivel(celula.ID, celula.RedeID) {
		return CelulaDetalhe{}, access.ErrForbidden
	}

	participantes, err := s.repo.ListParticipantesByCelula(ctx, ac.IgrejaID, celula.ID)
	if err != nil {
		return CelulaDetalhe{}, err
	}
	return CelulaDetalhe{Celula: celula, Participantes: participantes}, nil
}

// ListRedes devolve as redes visíveis, como visão hierárquica.
func (s *Service) ListRedes(ctx context.Context, ac *access.Context) ([]Rede, error) {
	if err := access.Require(ac, rbac.ModulePastorRede, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListRedes(ctx, ac.IgrejaID, EscopoDe(ac))
}

// RedeDetalhe é a visão de relatório de uma rede.
type RedeDetalhe struct {
	Rede    Rede     `json:"rede"`
	Celulas []Celula `json:"celulas"`
}

// GetRede devolve a rede com suas células, se visível ao ator.
func (s *Service) GetRede(ctx context.Context, ac *access.Context, redeID uuid.UUID) (RedeDetalhe, error) {
	if err := access.Require(ac, rbac.ModulePastorRede, rbac.ActionView); err != nil {
		return RedeDetalhe{}, err
	}
	if !ac.RedeVisivel(redeID) {
		return RedeDetalhe{}, access.ErrForbidden
	}

	rede, err := s.repo.GetRede(ctx, ac.IgrejaID, redeID)
	if err != nil {
		return RedeDetalhe{}, err
	}
	celulas, err := s.repo.ListCelulasByRede(ctx, ac.IgrejaID, rede.ID)
	if err != nil {
		return RedeDetalhe{}, err
	}
	return RedeDetalhe{Rede: rede, Celulas: celulas}, nil
}

// TransferContexto reúne o necessário para montar uma transferência: as
// células visíveis e, quando informada a origem, seus participantes.
type TransferContexto struct {
	Celulas       []Celula       `json:"celulas"`
	Participantes []Participante `json:"participantes"`
}

func (s *Service) TransferContexto(ctx context.Context, ac *access.Context, origemID *uuid.UUID) (TransferContexto, error) {
	if err := access.Require(ac, rbac.ModuleCellsAdmin, rbac.ActionEdit); err != nil {
		return TransferContexto{}, err
	}

	celulas, err := s.repo.ListCelulas(ctx, ac.IgrejaID, EscopoDe(ac))
	if err != nil {
		return TransferContexto{}, err
	}

	out := TransferContexto{Celulas: celulas, Participantes: []Participante{}}
	if origemID == nil {
		return out, nil
	}

	origem, err := s.repo.GetCelula(ctx, ac.IgrejaID, *origemID)
	if err != nil {
		return TransferContexto{}, err
	}
	if !ac.CelulaVisivel(origem.ID, origem.RedeID) {
		return TransferContexto{}, access.ErrForbidden
	}
	participantes, err := s.repo.ListParticipantesByCelula(ctx, ac.IgrejaID, origem.ID)
	if err != nil {
		return TransferContexto{}, err
	}
	out.Participantes = participantes
	return out, nil
}

// TransferirInput é o pedido de transferência de participante entre células.
type TransferirInput struct {
	ParticipanteID  uuid.UUID `json:"participante_id"`
	CelulaOrigemID  uuid.UUID `json:"celula_origem_id"`
	CelulaDestinoID uuid.UUID `json:"celula_destino_id"`
}

// Transferir move o participante da origem para o destino numa unidade
// atômica: desativa o vínculo de origem, ativa o de destino e registra a
// transferência. Qualquer falha desfaz os três passos.
func (s *Service) Transferir(ctx context.Context, ac *access.Context, in TransferirInput) error {
	if err := access.Require(ac, rbac.ModuleCellsAdmin, rbac.ActionEdit); err != nil {
		return err
	}
	if in.CelulaOrigemID == in.CelulaDestinoID {
		return ErrMesmaCelula
	}

	origem, err := s.repo.GetCelula(ctx, ac.IgrejaID, in.CelulaOrigemID)
	if err != nil {
		return err
	}
	destino, err := s.repo.GetCelula(ctx, ac.IgrejaID, in.CelulaDestinoID)
	if err != nil {
		return err
	}
	if !ac.CelulaVisivel(origem.ID, origem.RedeID) || !ac.CelulaVisivel(destino.ID, destino.RedeID) {
		return access.ErrForbidden
	}

	participante, err := s.repo.GetParticipante(ctx, ac.IgrejaID, in.ParticipanteID)
	if err != nil {
		return err
	}
	if participante.CelulaID != origem.ID {
		return ErrParticipanteForaDaOrigem
	}

	return s.repo.WithTransfer(ctx, func(ops TransferOps) error {
		if err := ops.DesativarVinculoCelula(ctx, participante.ID, origem.ID); err != nil {
			return err
		}
		if err := ops.AtivarVinculoCelula(ctx, participante.ID, destino.ID); err != nil {
			return err
		}
		return ops.RegistrarTransferencia(ctx, Transferencia{
			ParticipanteID:  participante.ID,
			CelulaOrigemID:  origem.ID,
			CelulaDestinoID: destino.ID,
		})
	})
}

// GetNomenclatura devolve os rótulos configurados, completando módulos
// ausentes com o padrão.
func (s *Service) GetNomenclatura(ctx context.Context, ac *access.Context) (map[string]string, error) {
	if err := access.Require(ac, rbac.ModuleDashboard, rbac.ActionView); err != nil {
		return nil, err
	}

	rotulos, err := s.repo.GetNomenclatura(ctx, ac.IgrejaID)
	if err != nil {
		return nil, err
	}
	for modulo, padrao := range nomenclaturaPadrao {
		if _, ok := rotulos[string(modulo)]; !ok {
			rotulos[string(modulo)] = padrao
		}
	}
	return rotulos, nil
}

// SaveNomenclatura grava rótulos customizados. Só admin_geral tem edit em
// dashboard, então a matriz já restringe a operação.
func (s *Service) SaveNomenclatura(ctx context.Context, ac *access.Context, rotulos map[string]string) error {
	if err := access.Require(ac, rbac.ModuleDashboard, rbac.ActionEdit); err != nil {
		return err
	}

	limpos := make(map[string]string, len(rotulos))
	for modulo, rotulo := range rotulos {
		if _, ok := nomenclaturaPadrao[rbac.Module(modulo)]; !ok {
			return ErrModuloInvalido
		}
		rotulo = strings.TrimSpace(rotulo)
		if err := util.RequireString(rotulo, "rotulo"); err != nil {
			return err
		}
		limpos[modulo] = rotulo
	}
	if len(limpos) == 0 {
		return nil
	}
	return s.repo.SaveNomenclatura(ctx, ac.IgrejaID, limpos)
}

// RestoreNomenclatura volta todos os rótulos ao padrão.
func (s *Service) RestoreNomenclatura(ctx context.Context, ac *access.Context) error {
	if err := access.Require(ac, rbac.ModuleDashboard, rbac.ActionEdit); err != nil {
		return err
	}
	return s.repo.RestoreNomenclatura(ctx, ac.IgrejaID)
}

// ListReunioesGD devolve o histórico de reuniões de grupo de discipulado.
func (s *Service) ListReunioesGD(ctx context.Context, ac *access.Context) ([]ReuniaoGD, error) {
	if err := access.Require(ac, rbac.ModuleDiscipleship, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListReunioesGD(ctx, ac.IgrejaID, EscopoDe(ac))
}

// CreateReuniaoGD registra uma reunião de grupo de discipulado.
func (s *Service) CreateReuniaoGD(ctx context.Context, ac *access.Context, reuniao ReuniaoGD) (ReuniaoGD, error) {
	if err := access.Require(ac, rbac.ModuleDiscipleship, rbac.ActionCreate); err != nil {
		return ReuniaoGD{}, err
	}
	if err := util.RequireString(reuniao.Tema, "tema"); err != nil {
		return ReuniaoGD{}, err
	}

	celula, err := s.repo.GetCelula(ctx, ac.IgrejaID, reuniao.CelulaID)
	if err != nil {
		return ReuniaoGD{}, err
	}
	if !ac.CelulaVisivel(celula.ID, celula.RedeID) {
		return ReuniaoGD{}, access.ErrForbidden
	}
	return s.repo.CreateReuniaoGD(ctx, ac.IgrejaID, reuniao)
}

// ListEmails devolve o log de e-mails da igreja.
func (s *Service) ListEmails(ctx context.Context, ac *access.Context) ([]EmailLog, error) {
	if err := access.Require(ac, rbac.ModuleEmail, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListEmails(ctx, ac.IgrejaID)
}

// CreateEmail registra um e-mail no log. Não há entrega real: o módulo é
// um diário de comunicação.
func (s *Service) CreateEmail(ctx context.Context, ac *access.Context, email EmailLog) (EmailLog, error) {
	if err := access.Require(ac, rbac.ModuleEmail, rbac.ActionCreate); err != nil {
		return EmailLog{}, err
	}
	if err := util.ValidateEmail(email.Destinatario); err != nil {
		return EmailLog{}, err
	}
	if err := util.RequireString(email.Assunto, "assunto"); err != nil {
		return EmailLog{}, err
	}
	email.UsuarioID = ac.UsuarioID
	return s.repo.CreateEmail(ctx, ac.IgrejaID, email)
}

// ListLideres devolve líderes e líderes em treinamento do recorte visível.
func (s *Service) ListLideres(ctx context.Context, ac *access.Context) ([]Lider, error) {
	if err := access.Require(ac, rbac.ModuleLeadershipSchool, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListLideres(ctx, ac.IgrejaID, EscopoDe(ac))
}

// PromoverParticipante avança a categoria do participante um degrau:
// membro vira líder em treinamento, líder em treinamento vira líder.
func (s *Service) PromoverParticipante(ctx context.Context, ac *access.Context, participanteID uuid.UUID) (Participante, error) {
	if err := access.Require(ac, rbac.ModuleLeadershipSchool, rbac.ActionEdit); err != nil {
		return Participante{}, err
	}

	participante, err := s.repo.GetParticipante(ctx, ac.IgrejaID, participanteID)
	if err != nil {
		return Participante{}, err
	}
	if !ac.CelulaVisivel(participante.CelulaID, participante.RedeID) {
		return Participante{}, access.ErrForbidden
	}

	var proxima string
	switch participante.Categoria {
	case CategoriaMembro:
		proxima = CategoriaLiderTreinamento
	case CategoriaLiderTreinamento:
		proxima = CategoriaLider
	case CategoriaLider:
		return Participante{}, ErrJaLider
	default:
		return Participante{}, ErrCategoriaInvalida
	}

	if err := s.repo.UpdateParticipanteCategoria(ctx, ac.IgrejaID, participante.ID, proxima); err != nil {
		return Participante{}, err
	}
	participante.Categoria = proxima
	return participante, nil
}

// ListConsolidacoes devolve as fichas de consolidação do recorte visível.
func (s *Service) ListConsolidacoes(ctx context.Context, ac *access.Context) ([]Consolidacao, error) {
	if err := access.Require(ac, rbac.ModuleConsolidation, rbac.ActionView); err != nil {
		return nil, err
	}
	return s.repo.ListConsolidacoes(ctx, ac.IgrejaID, EscopoDe(ac))
}

// GetConsolidacao devolve uma ficha, se a célula dela for visível.
func (s *Service) GetConsolidacao(ctx context.Context, ac *access.Context, id uuid.UUID) (Consolidacao, error) {
	if err := access.Require(ac, rbac.ModuleConsolidation, rbac.ActionView); err != nil {
		return Consolidacao{}, err
	}

	cs, err := s.repo.GetConsolidacao(ctx, ac.IgrejaID, id)
	if err != nil {
		return Consolidacao{}, err
	}
	celula, err := s.repo.GetCelula(ctx, ac.IgrejaID, cs.CelulaID)
	if err != nil {
		return Consolidacao{}, err
	}
	if !ac.CelulaVisivel(celula.ID, celula.RedeID) {
		return Consolidacao{}, access.ErrForbidden
	}
	return cs, nil
}

// CreateConsolidacao abre uma ficha nova, sempre com status inicial.
func (s *Service) CreateConsolidacao(ctx context.Context, ac *access.Context, in Consolidacao) (Consolidacao, error) {
	if err := access.Require(ac, rbac.ModuleConsolidation, rbac.ActionCreate); err != nil {
		return Consolidacao{}, err
	}
	if err := util.RequireString(in.Nome, "nome"); err != nil {
		return Consolidacao{}, err
	}

	celula, err := s.repo.GetCelula(ctx, ac.IgrejaID, in.CelulaID)
	if err != nil {
		return Consolidacao{}, err
	}
	if !ac.CelulaVisivel(celula.ID, celula.RedeID) {
		return Consolidacao{}, access.ErrForbidden
	}

	in.Status = StatusNovo
	return s.repo.CreateConsolidacao(ctx, ac.IgrejaID, in)
}

// UpdateConsolidacao atualiza status e observação de uma ficha.
func (s *Service) UpdateConsolidacao(ctx context.Context, ac *access.Context, id uuid.UUID, status string, observacao *string) error {
	if err := access.Require(ac, rbac.ModuleConsolidation, rbac.ActionEdit); err != nil {
		return err
	}
	if !StatusValido(status) {
		return ErrStatusInvalido
	}

	cs, err := s.repo.GetConsolidacao(ctx, ac.IgrejaID, id)
	if err != nil {
		return err
	}
	celula, err := s.repo.GetCelula(ctx, ac.IgrejaID, cs.CelulaID)
	if err != nil {
		return err
	}
	if !ac.CelulaVisivel(celula.ID, celula.RedeID) {
		return access.ErrForbidden
	}
	return s.repo.UpdateConsolidacao(ctx, ac.IgrejaID, id, status, observacao)
}
