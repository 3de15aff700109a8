package panel

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaocelulas/igreja/internal/db"
)

// Repository é a fatia de persistência consumida pelo serviço do painel.
type Repository interface {
	ListRedes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Rede, error)
	GetRede(ctx context.Context, igrejaID, redeID uuid.UUID) (Rede, error)
	ListCelulas(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Celula, error)
	ListCelulasByRede(ctx context.Context, igrejaID, redeID uuid.UUID) ([]Celula, error)
	GetCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) (Celula, error)
	ListParticipantesByCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) ([]Participante, error)
	GetParticipante(ctx context.Context, igrejaID, participanteID uuid.UUID) (Participante, error)
	ContarKPIs(ctx context.Context, igrejaID uuid.UUID, esc Escopo) (KPIs, error)
	Buscar(ctx context.Context, igrejaID uuid.UUID, esc Escopo, termo string) (BuscaResultado, error)

	WithTransfer(ctx context.Context, fn func(ops TransferOps) error) error

	GetNomenclatura(ctx context.Context, igrejaID uuid.UUID) (map[string]string, error)
	SaveNomenclatura(ctx context.Context, igrejaID uuid.UUID, rotulos map[string]string) error
	RestoreNomenclatura(ctx context.Context, igrejaID uuid.UUID) error

	ListReunioesGD(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]ReuniaoGD, error)
	CreateReuniaoGD(ctx context.Context, igrejaID uuid.UUID, reuniao ReuniaoGD) (ReuniaoGD, error)

	ListEmails(ctx context.Context, igrejaID uuid.UUID) ([]EmailLog, error)
	CreateEmail(ctx context.Context, igrejaID uuid.UUID, email EmailLog) (EmailLog, error)

	ListLideres(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Lider, error)
	UpdateParticipanteCategoria(ctx context.Context, igrejaID, participanteID uuid.UUID, categoria string) error

	ListConsolidacoes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Consolidacao, error)
	GetConsolidacao(ctx context.Context, igrejaID, id uuid.UUID) (Consolidacao, error)
	CreateConsolidacao(ctx context.Context, igrejaID uuid.UUID, c Consolidacao) (Consolidacao, error)
	UpdateConsolidacao(ctx context.Context, igrejaID, id uuid.UUID, status string, observacao *string) error
}

// TransferOps são os passos da transferência, executados na ordem dentro
// de uma única unidade atômica.
type TransferOps interface {
	DesativarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error
	AtivarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error
	RegistrarTransferencia(ctx context.Context, t Transferencia) error
}

// PGRepository implementa Repository sobre Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório do painel.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// uuids normaliza slices para nunca enviar NULL ao ANY().
func uuids(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// As consultas escopadas recebem sempre (kind, rede_ids, celula_ids) e
// resolvem a visibilidade na própria cláusula: escopo de rede cobre todas
// as células cujas redes pertencem ao conjunto.
const celulaScope = `($2::text = 'all'
        OR ($2 = 'rede' AND c.rede_id = ANY($3::uuid[]))
        OR ($2 = 'celula' AND c.id = ANY($4::uuid[])))`

func (r *PGRepository) ListRedes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Rede, error) {
	const query = `
        SELECT r.id, r.nome, r.ativa, count(c.id)
        FROM redes r
        LEFT JOIN celulas c ON c.rede_id = r.id AND c.ativa
        WHERE r.igreja_id = $1 AND r.ativa
          AND ($2::text = 'all' OR ($2 = 'rede' AND r.id = ANY($3::uuid[])))
        GROUP BY r.id, r.nome, r.ativa
        ORDER BY r.nome
    `

	rows, err := r.pool.Query(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redes []Rede
	for rows.Next() {
		var rede Rede
		if err := rows.Scan(&rede.ID, &rede.Nome, &rede.Ativa, &rede.TotalCelulas); err != nil {
			return nil, err
		}
		redes = append(redes, rede)
	}
	return redes, rows.Err()
}

func (r *PGRepository) GetRede(ctx context.Context, igrejaID, redeID uuid.UUID) (Rede, error) {
	const query = `
        SELECT r.id, r.nome, r.ativa, count(c.id)
        FROM redes r
        LEFT JOIN celulas c ON c.rede_id = r.id AND c.ativa
        WHERE r.igreja_id = $1 AND r.id = $2
        GROUP BY r.id, r.nome, r.ativa
    `

	var rede Rede
	err := r.pool.QueryRow(ctx, query, igrejaID, redeID).
		Scan(&rede.ID, &rede.Nome, &rede.Ativa, &rede.TotalCelulas)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rede{}, ErrNotFound
		}
		return Rede{}, err
	}
	return rede, nil
}

func (r *PGRepository) ListCelulas(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Celula, error) {
	const query = `
        SELECT c.id, c.rede_id, r.nome, c.nome, c.ativa, count(vc.participante_id)
        FROM celulas c
        JOIN redes r ON r.id = c.rede_id
        LEFT JOIN vinculos_celula vc ON vc.celula_id = c.id AND vc.ativo
        WHERE c.igreja_id = $1 AND c.ativa AND ` + celulaScope + `
        GROUP BY c.id, c.rede_id, r.nome, c.nome, c.ativa
        ORDER BY r.nome, c.nome
    `

	return r.queryCelulas(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs))
}

func (r *PGRepository) ListCelulasByRede(ctx context.Context, igrejaID, redeID uuid.UUID) ([]Celula, error) {
	const query = `
        SELECT c.id, c.rede_id, r.nome, c.nome, c.ativa, count(vc.participante_id)
        FROM celulas c
        JOIN redes r ON r.id = c.rede_id
        LEFT JOIN vinculos_celula vc ON vc.celula_id = c.id AND vc.ativo
        WHERE c.igreja_id = $1 AND c.rede_id = $2 AND c.ativa
        GROUP BY c.id, c.rede_id, r.nome, c.nome, c.ativa
        ORDER BY c.nome
    `

	return r.queryCelulas(ctx, query, igrejaID, redeID)
}

func (r *PGRepository) queryCelulas(ctx context.Context, query string, args ...any) ([]Celula, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var celulas []Celula
	for rows.Next() {
		var c Celula
		if err := rows.Scan(&c.ID, &c.RedeID, &c.RedeNome, &c.Nome, &c.Ativa, &c.TotalParticipantes); err != nil {
			return nil, err
		}
		celulas = append(celulas, c)
	}
	return celulas, rows.Err()
}

func (r *PGRepository) GetCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) (Celula, error) {
	const query = `
        SELECT c.id, c.rede_id, r.nome, c.nome, c.ativa, count(vc.participante_id)
        FROM celulas c
        JOIN redes r ON r.id = c.rede_id
        LEFT JOIN vinculos_celula vc ON vc.celula_id = c.id AND vc.ativo
        WHERE c.igreja_id = $1 AND c.id = $2
        GROUP BY c.id, c.rede_id, r.nome, c.nome, c.ativa
    `

	var c Celula
	err := r.pool.QueryRow(ctx, query, igrejaID, celulaID).
		Scan(&c.ID, &c.RedeID, &c.RedeNome, &c.Nome, &c.Ativa, &c.TotalParticipantes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Celula{}, ErrNotFound
		}
		return Celula{}, err
	}
	return c, nil
}

func (r *PGRepository) ListParticipantesByCelula(ctx context.Context, igrejaID, celulaID uuid.UUID) ([]Participante, error) {
	const query = `
        SELECT p.id, vc.celula_id, c.rede_id, p.nome, p.categoria, p.ativo
        FROM participantes p
        JOIN vinculos_celula vc ON vc.participante_id = p.id AND vc.ativo
        JOIN celulas c ON c.id = vc.celula_id
        WHERE p.igreja_id = $1 AND vc.celula_id = $2 AND p.ativo
        ORDER BY p.nome
    `

	return r.queryParticipantes(ctx, query, igrejaID, celulaID)
}

func (r *PGRepository) GetParticipante(ctx context.Context, igrejaID, participanteID uuid.UUID) (Participante, error) {
	const query = `
        SELECT p.id, vc.celula_id, c.rede_id, p.nome, p.categoria, p.ativo
        FROM participantes p
        JOIN vinculos_celula vc ON vc.participante_id = p.id AND vc.ativo
        JOIN celulas c ON c.id = vc.celula_id
        WHERE p.igreja_id = $1 AND p.id = $2
    `

	var p Participante
	err := r.pool.QueryRow(ctx, query, igrejaID, participanteID).
		Scan(&p.ID, &p.CelulaID, &p.RedeID, &p.Nome, &p.Categoria, &p.Ativo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participante{}, ErrNotFound
		}
		return Participante{}, err
	}
	return p, nil
}

func (r *PGRepository) queryParticipantes(ctx context.Context, query string, args ...any) ([]Participante, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participantes []Participante
	for rows.Next() {
		var p Participante
		if err := rows.Scan(&p.ID, &p.CelulaID, &p.RedeID, &p.Nome, &p.Categoria, &p.Ativo); err != nil {
			return nil, err
		}
		participantes = append(participantes, p)
	}
	return participantes, rows.Err()
}

func (r *PGRepository) ContarKPIs(ctx context.Context, igrejaID uuid.UUID, esc Escopo) (KPIs, error) {
	const query = `
        SELECT
            (SELECT count(*) FROM redes r
             WHERE r.igreja_id = $1 AND r.ativa
               AND ($2::text = 'all' OR ($2 = 'rede' AND r.id = ANY($3::uuid[])))),
            (SELECT count(*) FROM celulas c
             WHERE c.igreja_id = $1 AND c.ativa AND ` + celulaScope + `),
            (SELECT count(DISTINCT vc.participante_id) FROM vinculos_celula vc
             JOIN celulas c ON c.id = vc.celula_id
             WHERE c.igreja_id = $1 AND vc.ativo AND ` + celulaScope + `),
            (SELECT count(*) FROM consolidacoes cs
             JOIN celulas c ON c.id = cs.celula_id
             WHERE cs.igreja_id = $1 AND ` + celulaScope + `),
            (SELECT count(*) FROM participantes p
             JOIN vinculos_celula vc ON vc.participante_id = p.id AND vc.ativo
             JOIN celulas c ON c.id = vc.celula_id
             WHERE p.igreja_id = $1 AND p.ativo AND p.categoria <> 'membro' AND ` + celulaScope + `)
    `

	var k KPIs
	err := r.pool.QueryRow(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs)).
		Scan(&k.Redes, &k.Celulas, &k.Participantes, &k.Consolidacoes, &k.Lideres)
	if err != nil {
		return KPIs{}, err
	}
	return k, nil
}

func (r *PGRepository) Buscar(ctx context.Context, igrejaID uuid.UUID, esc Escopo, termo string) (BuscaResultado, error) {
	pattern := "%" + strings.TrimSpace(termo) + "%"

	const celulasQuery = `
        SELECT c.id, c.rede_id, r.nome, c.nome, c.ativa, 0
        FROM celulas c
        JOIN redes r ON r.id = c.rede_id
        WHERE c.igreja_id = $1 AND c.ativa AND c.nome ILIKE $5 AND ` + celulaScope + `
        ORDER BY c.nome
        LIMIT 20
    `
	celulas, err := r.queryCelulas(ctx, celulasQuery, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs), pattern)
	if err != nil {
		return BuscaResultado{}, err
	}

	const participantesQuery = `
        SELECT p.id, vc.celula_id, c.rede_id, p.nome, p.categoria, p.ativo
        FROM participantes p
        JOIN vinculos_celula vc ON vc.participante_id = p.id AND vc.ativo
        JOIN celulas c ON c.id = vc.celula_id
        WHERE p.igreja_id = $1 AND p.ativo AND p.nome ILIKE $5 AND ` + celulaScope + `
        ORDER BY p.nome
        LIMIT 20
    `
	participantes, err := r.queryParticipantes(ctx, participantesQuery, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs), pattern)
	if err != nil {
		return BuscaResultado{}, err
	}

	return BuscaResultado{Celulas: celulas, Participantes: participantes}, nil
}

// WithTransfer executa os passos da transferência numa transação única.
func (r *PGRepository) WithTransfer(ctx context.Context, fn func(ops TransferOps) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(pgTransferOps{tx: tx})
	})
}

type pgTransferOps struct {
	tx pgx.Tx
}

func (o pgTransferOps) DesativarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error {
	const query = `
        UPDATE vinculos_celula
        SET ativo = false
        WHERE participante_id = $1 AND celula_id = $2 AND ativo
    `
	tag, err := o.tx.Exec(ctx, query, participanteID, celulaID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (o pgTransferOps) AtivarVinculoCelula(ctx context.Context, participanteID, celulaID uuid.UUID) error {
	const query = `
        INSERT INTO vinculos_celula (participante_id, celula_id, ativo)
        VALUES ($1, $2, true)
    `
	_, err := o.tx.Exec(ctx, query, participanteID, celulaID)
	return err
}

func (o pgTransferOps) RegistrarTransferencia(ctx context.Context, t Transferencia) error {
	const query = `
        INSERT INTO transferencias (igreja_id, participante_id, celula_origem, celula_destino)
        SELECT c.igreja_id, $1, $2, $3
        FROM celulas c WHERE c.id = $2
    `
	_, err := o.tx.Exec(ctx, query, t.ParticipanteID, t.CelulaOrigemID, t.CelulaDestinoID)
	return err
}

func (r *PGRepository) GetNomenclatura(ctx context.Context, igrejaID uuid.UUID) (map[string]string, error) {
	const query = `
        SELECT modulo, rotulo
        FROM nomenclaturas
        WHERE igreja_id = $1
    `

	rows, err := r.pool.Query(ctx, query, igrejaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rotulos := make(map[string]string)
	for rows.Next() {
		var modulo, rotulo string
		if err := rows.Scan(&modulo, &rotulo); err != nil {
			return nil, err
		}
		rotulos[modulo] = rotulo
	}
	return rotulos, rows.Err()
}

func (r *PGRepository) SaveNomenclatura(ctx context.Context, igrejaID uuid.UUID, rotulos map[string]string) error {
	const query = `
        INSERT INTO nomenclaturas (igreja_id, modulo, rotulo)
        VALUES ($1, $2, $3)
        ON CONFLICT (igreja_id, modulo) DO UPDATE SET rotulo = EXCLUDED.rotulo
    `

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for modulo, rotulo := range rotulos {
			if _, err := tx.Exec(ctx, query, igrejaID, modulo, strings.TrimSpace(rotulo)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PGRepository) RestoreNomenclatura(ctx context.Context, igrejaID uuid.UUID) error {
	return r.SaveNomenclatura(ctx, igrejaID, NomenclaturaPadrao())
}

func (r *PGRepository) ListReunioesGD(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]ReuniaoGD, error) {
	const query = `
        SELECT g.id, g.celula_id, g.data, g.tema, g.presentes, g.criado_em
        FROM reunioes_gd g
        JOIN celulas c ON c.id = g.celula_id
        WHERE g.igreja_id = $1 AND ` + celulaScope + `
        ORDER BY g.data DESC
        LIMIT 100
    `

	rows, err := r.pool.Query(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reunioes []ReuniaoGD
	for rows.Next() {
		var g ReuniaoGD
		if err := rows.Scan(&g.ID, &g.CelulaID, &g.Data, &g.Tema, &g.Presentes, &g.CriadoEm); err != nil {
			return nil, err
		}
		reunioes = append(reunioes, g)
	}
	return reunioes, rows.Err()
}

func (r *PGRepository) CreateReuniaoGD(ctx context.Context, igrejaID uuid.UUID, reuniao ReuniaoGD) (ReuniaoGD, error) {
	const query = `
        INSERT INTO reunioes_gd (igreja_id, celula_id, data, tema, presentes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, celula_id, data, tema, presentes, criado_em
    `

	var g ReuniaoGD
	err := r.pool.QueryRow(ctx, query, igrejaID, reuniao.CelulaID, reuniao.Data, reuniao.Tema, reuniao.Presentes).
		Scan(&g.ID, &g.CelulaID, &g.Data, &g.Tema, &g.Presentes, &g.CriadoEm)
	if err != nil {
		return ReuniaoGD{}, err
	}
	return g, nil
}

func (r *PGRepository) ListEmails(ctx context.Context, igrejaID uuid.UUID) ([]EmailLog, error) {
	// o log é da igreja inteira: e-mails não pertencem à hierarquia de
	// redes e o gate do módulo de e-mail já corta quem pode ler
	const query = `
        SELECT id, usuario_id, destinatario, assunto, corpo, criado_em
        FROM emails_log
        WHERE igreja_id = $1
        ORDER BY criado_em DESC
        LIMIT 100
    `

	rows, err := r.pool.Query(ctx, query, igrejaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []EmailLog
	for rows.Next() {
		var e EmailLog
		if err := rows.Scan(&e.ID, &e.UsuarioID, &e.Destinatario, &e.Assunto, &e.Corpo, &e.CriadoEm); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (r *PGRepository) CreateEmail(ctx context.Context, igrejaID uuid.UUID, email EmailLog) (EmailLog, error) {
	const query = `
        INSERT INTO emails_log (igreja_id, usuario_id, destinatario, assunto, corpo)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, usuario_id, destinatario, assunto, corpo, criado_em
    `

	var e EmailLog
	err := r.pool.QueryRow(ctx, query, igrejaID, email.UsuarioID, email.Destinatario, email.Assunto, email.Corpo).
		Scan(&e.ID, &e.UsuarioID, &e.Destinatario, &e.Assunto, &e.Corpo, &e.CriadoEm)
	if err != nil {
		return EmailLog{}, err
	}
	return e, nil
}

func (r *PGRepository) ListLideres(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Lider, error) {
	const query = `
        SELECT p.id, vc.celula_id, p.nome, p.categoria
        FROM participantes p
        JOIN vinculos_celula vc ON vc.participante_id = p.id AND vc.ativo
        JOIN celulas c ON c.id = vc.celula_id
        WHERE p.igreja_id = $1 AND p.ativo AND p.categoria <> 'membro' AND ` + celulaScope + `
        ORDER BY p.nome
    `

	rows, err := r.pool.Query(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lideres []Lider
	for rows.Next() {
		var l Lider
		if err := rows.Scan(&l.ID, &l.CelulaID, &l.Nome, &l.Categoria); err != nil {
			return nil, err
		}
		lideres = append(lideres, l)
	}
	return lideres, rows.Err()
}

func (r *PGRepository) UpdateParticipanteCategoria(ctx context.Context, igrejaID, participanteID uuid.UUID, categoria string) error {
	const query = `
        UPDATE participantes
        SET categoria = $3
        WHERE igreja_id = $1 AND id = $2 AND ativo
    `

	tag, err := r.pool.Exec(ctx, query, igrejaID, participanteID, categoria)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) ListConsolidacoes(ctx context.Context, igrejaID uuid.UUID, esc Escopo) ([]Consolidacao, error) {
	const query = `
        SELECT cs.id, cs.celula_id, cs.nome, cs.telefone, cs.status, cs.observacao, cs.criado_em, cs.atualizado_em
        FROM consolidacoes cs
        JOIN celulas c ON c.id = cs.celula_id
        WHERE cs.igreja_id = $1 AND ` + celulaScope + `
        ORDER BY cs.criado_em DESC
        LIMIT 200
    `

	rows, err := r.pool.Query(ctx, query, igrejaID, string(esc.Kind), uuids(esc.RedeIDs), uuids(esc.CelulaIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consolidacoes []Consolidacao
	for rows.Next() {
		var cs Consolidacao
		if err := rows.Scan(&cs.ID, &cs.CelulaID, &cs.Nome, &cs.Telefone, &cs.Status, &cs.Observacao, &cs.CriadoEm, &cs.AtualizadoEm); err != nil {
			return nil, err
		}
		consolidacoes = append(consolidacoes, cs)
	}
	return consolidacoes, rows.Err()
}

func (r *PGRepository) GetConsolidacao(ctx context.Context, igrejaID, id uuid.UUID) (Consolidacao, error) {
	const query = `
        SELECT id, celula_id, nome, telefone, status, observacao, criado_em, atualizado_em
        FROM consolidacoes
        WHERE igreja_id = $1 AND id = $2
    `

	var cs Consolidacao
	err := r.pool.QueryRow(ctx, query, igrejaID, id).
		Scan(&cs.ID, &cs.CelulaID, &cs.Nome, &cs.Telefone, &cs.Status, &cs.Observacao, &cs.CriadoEm, &cs.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Consolidacao{}, ErrNotFound
		}
		return Consolidacao{}, err
	}
	return cs, nil
}

func (r *PGRepository) CreateConsolidacao(ctx context.Context, igrejaID uuid.UUID, c Consolidacao) (Consolidacao, error) {
	const query = `
        INSERT INTO consolidacoes (igreja_id, celula_id, nome, telefone, status, observacao)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, celula_id, nome, telefone, status, observacao, criado_em, atualizado_em
    `

	var cs Consolidacao
	err := r.pool.QueryRow(ctx, query, igrejaID, c.CelulaID, c.Nome, c.Telefone, c.Status, c.Observacao).
		Scan(&cs.ID, &cs.CelulaID, &cs.Nome, &cs.Telefone, &cs.Status, &cs.Observacao, &cs.CriadoEm, &cs.AtualizadoEm)
	if err != nil {
		return Consolidacao{}, err
	}
	return cs, nil
}

func (r *PGRepository) UpdateConsolidacao(ctx context.Context, igrejaID, id uuid.UUID, status string, observacao *string) error {
	const query = `
        UPDATE consolidacoes
        SET status = $3, observacao = $4, atualizado_em = now()
        WHERE igreja_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, igrejaID, id, status, observacao)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
