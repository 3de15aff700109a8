package panel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gestaocelulas/igreja/internal/access"
	"github.com/gestaocelulas/igreja/internal/db"
	"github.com/gestaocelulas/igreja/internal/rbac"
	"github.com/gestaocelulas/igreja/internal/util"
)

var (
	// ErrNotFound indica registro ausente ou fora da igreja do ator.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrCategoriaInvalida indica categoria de participante desconhecida.
	ErrCategoriaInvalida = util.Invalid("categoria inválida")
)

// Rede agrupa células sob um pastor de rede.
type Rede struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	Ativa        bool      `json:"ativa"`
	TotalCelulas int64     `json:"total_celulas"`
}

// Celula é a menor unidade da hierarquia.
type Celula struct {
	ID                 uuid.UUID `json:"id"`
	RedeID             uuid.UUID `json:"rede_id"`
	RedeNome           string    `json:"rede_nome"`
	Nome               string    `json:"nome"`
	Ativa              bool      `json:"ativa"`
	TotalParticipantes int64     `json:"total_participantes"`
}

// Participante é membro vinculado a uma célula.
type Participante struct {
	ID        uuid.UUID `json:"id"`
	CelulaID  uuid.UUID `json:"celula_id"`
	RedeID    uuid.UUID `json:"rede_id"`
	Nome      string    `json:"nome"`
	Categoria string    `json:"categoria"`
	Ativo     bool      `json:"ativo"`
}

// Categorias de participante, em ordem de progressão.
const (
	CategoriaMembro           = "membro"
	CategoriaLiderTreinamento = "lider_em_treinamento"
	CategoriaLider            = "lider"
)

// Transferencia registra a movimentação de um participante entre células.
type Transferencia struct {
	ID              uuid.UUID `json:"id"`
	ParticipanteID  uuid.UUID `json:"participante_id"`
	CelulaOrigemID  uuid.UUID `json:"celula_origem_id"`
	CelulaDestinoID uuid.UUID `json:"celula_destino_id"`
	CriadoEm        time.Time `json:"criado_em"`
}

// Consolidacao acompanha um novo convertido até a integração na célula.
type Consolidacao struct {
	ID           uuid.UUID  `json:"id"`
	CelulaID     uuid.UUID  `json:"celula_id"`
	Nome         string     `json:"nome"`
	Telefone     string     `json:"telefone"`
	Status       string     `json:"status"`
	Observacao   *string    `json:"observacao,omitempty"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm *time.Time `json:"atualizado_em,omitempty"`
}

// EmailLog registra um envio de e-mail. O envio em si é apenas o registro:
// não há entrega real.
type EmailLog struct {
	ID           uuid.UUID `json:"id"`
	UsuarioID    uuid.UUID `json:"usuario_id"`
	Destinatario string    `json:"destinatario"`
	Assunto      string    `json:"assunto"`
	Corpo        string    `json:"corpo"`
	CriadoEm     time.Time `json:"criado_em"`
}

// ReuniaoGD registra um encontro de grupo de discipulado.
type ReuniaoGD struct {
	ID        uuid.UUID `json:"id"`
	CelulaID  uuid.UUID `json:"celula_id"`
	Data      time.Time `json:"data"`
	Tema      string    `json:"tema"`
	Presentes int       `json:"presentes"`
	CriadoEm  time.Time `json:"criado_em"`
}

// Lider agrega um participante em função de liderança.
type Lider struct {
	ID        uuid.UUID `json:"id"`
	CelulaID  uuid.UUID `json:"celula_id"`
	Nome      string    `json:"nome"`
	Categoria string    `json:"categoria"`
}

// KPIs reúne os contadores do dashboard. Escopo vazio devolve zeros,
// nunca erro.
type KPIs struct {
	Redes         int64 `json:"redes"`
	Celulas       int64 `json:"celulas"`
	Participantes int64 `json:"participantes"`
	Consolidacoes int64 `json:"consolidacoes"`
	Lideres       int64 `json:"lideres"`
}

// BuscaResultado agrupa os acertos da busca global.
type BuscaResultado struct {
	Celulas       []Celula       `json:"celulas"`
	Participantes []Participante `json:"participantes"`
}

// Escopo é o filtro de visibilidade derivado do contexto de acesso,
// repassado às consultas.
type Escopo struct {
	Kind      rbac.ScopeKind
	RedeIDs   []uuid.UUID
	CelulaIDs []uuid.UUID
}

// EscopoDe extrai o filtro de visibilidade do contexto de acesso.
func EscopoDe(ac *access.Context) Escopo {
	return Escopo{Kind: ac.Escopo, RedeIDs: ac.RedeIDs, CelulaIDs: ac.CelulaIDs}
}

// nomenclaturaPadrao são os rótulos de fábrica dos módulos do painel.
var nomenclaturaPadrao = map[rbac.Module]string{
	rbac.ModuleDashboard:        "Painel",
	rbac.ModuleCellsAdmin:       "Células",
	rbac.ModuleDiscipleship:     "Discipulado",
	rbac.ModuleConsolidation:    "Consolidação",
	rbac.ModuleLeadershipSchool: "Escola de Líderes",
	rbac.ModulePastorPresidente: "Pastor Presidente",
	rbac.ModulePastorRede:       "Pastor de Rede",
	rbac.ModuleLiderCelula:      "Líder de Célula",
	rbac.ModuleEmail:            "E-mails",
}

// NomenclaturaPadrao devolve uma cópia dos rótulos de fábrica.
func NomenclaturaPadrao() map[string]string {
	out := make(map[string]string, len(nomenclaturaPadrao))
	for module, rotulo := range nomenclaturaPadrao {
		out[string(module)] = rotulo
	}
	return out
}

// SeedNomenclatura grava os rótulos padrão de uma igreja recém-criada.
// Roda dentro da transação de registro.
func SeedNomenclatura(ctx context.Context, q db.Querier, igrejaID uuid.UUID) error {
	const query = `
        INSERT INTO nomenclaturas (igreja_id, modulo, rotulo)
        VALUES ($1, $2, $3)
    `
	for _, module := range rbac.Modules() {
		if _, err := q.Exec(ctx, query, igrejaID, string(module), nomenclaturaPadrao[module]); err != nil {
			return err
		}
	}
	return nil
}
