package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaocelulas/igreja/internal/db"
)

// Repository provê acesso ao armazenamento de igrejas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de igrejas.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca igreja pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Igreja, error) {
	const query = `
        SELECT id, nome, slug, ativa, criado_em
        FROM igrejas
        WHERE id = $1
    `
	return scanIgreja(r.pool.QueryRow(ctx, query, id))
}

// GetBySlug busca igreja pelo slug (case-insensitive).
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Igreja, error) {
	const query = `
        SELECT id, nome, slug, ativa, criado_em
        FROM igrejas
        WHERE lower(slug) = lower($1)
    `
	return scanIgreja(r.pool.QueryRow(ctx, query, strings.TrimSpace(slug)))
}

// List devolve todas as igrejas ordenadas por criação.
func (r *Repository) List(ctx context.Context) ([]Igreja, error) {
	const query = `
        SELECT id, nome, slug, ativa, criado_em
        FROM igrejas
        ORDER BY criado_em DESC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var igrejas []Igreja
	for rows.Next() {
		i, err := scanIgreja(rows)
		if err != nil {
			return nil, err
		}
		igrejas = append(igrejas, *i)
	}

	return igrejas, rows.Err()
}

// Insert grava uma igreja com o slug informado. Aceita Querier para rodar
// dentro da transação de registro ou direto no pool (CLI).
func Insert(ctx context.Context, q db.Querier, nome, slug string) (*Igreja, error) {
	const query = `
        INSERT INTO igrejas (nome, slug, ativa)
        VALUES ($1, $2, true)
        RETURNING id, nome, slug, ativa, criado_em
    `
	return scanIgreja(q.QueryRow(ctx, query, strings.TrimSpace(nome), slug))
}

// InsertTx grava a igreja dentro de uma transação já aberta, isolando a
// tentativa num savepoint. Sem o savepoint a violação de unicidade
// abortaria a transação inteira e o candidato seguinte falharia com
// 25P02 em vez de 23505.
func InsertTx(ctx context.Context, tx pgx.Tx, nome, slug string) (*Igreja, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	igreja, err := Insert(ctx, sp, nome, slug)
	if err != nil {
		_ = sp.Rollback(ctx)
		return nil, err
	}
	if err := sp.Commit(ctx); err != nil {
		return nil, err
	}
	return igreja, nil
}

func scanIgreja(row pgx.Row) (*Igreja, error) {
	var i Igreja
	if err := row.Scan(&i.ID, &i.Nome, &i.Slug, &i.Ativa, &i.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}
