package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra consultas compartilhadas entre serviços.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o conjunto de consultas sobre o pool informado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetUsuarioByEmail busca usuário ativo pelo e-mail (case-insensitive).
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE lower(email) = lower($1) AND ativo
    `

	var u Usuario
	err := q.pool.QueryRow(ctx, query, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Ativo, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByID busca usuário pelo identificador, ativo ou não.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE id = $1
    `

	var u Usuario
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Ativo, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// UpdateUsuario altera nome e e-mail do usuário.
func (q *Queries) UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error {
	const query = `
        UPDATE usuarios
        SET nome = $2, email = lower($3)
        WHERE id = $1 AND ativo
    `

	tag, err := q.pool.Exec(ctx, query, id, strings.TrimSpace(nome), strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteUsuario desativa a conta sem remover o registro.
func (q *Queries) SoftDeleteUsuario(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE usuarios
        SET ativo = false
        WHERE id = $1 AND ativo
    `

	tag, err := q.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMembership devolve o vínculo ativo entre usuário e igreja, incluindo
// identidade e papel. Usuário inativo, igreja inativa ou vínculo inativo
// resultam em ErrNotFound.
func (q *Queries) GetMembership(ctx context.Context, usuarioID, igrejaID uuid.UUID) (Membership, error) {
	const query = `
        SELECT u.id, u.nome, u.email, i.id, i.nome, v.papel
        FROM vinculos v
        JOIN usuarios u ON u.id = v.usuario_id AND u.ativo
        JOIN igrejas i ON i.id = v.igreja_id AND i.ativa
        WHERE v.usuario_id = $1 AND v.igreja_id = $2 AND v.ativo
    `

	var m Membership
	err := q.pool.QueryRow(ctx, query, usuarioID, igrejaID).
		Scan(&m.UsuarioID, &m.Nome, &m.Email, &m.IgrejaID, &m.IgrejaNome, &m.Papel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// GetMembershipByUsuario devolve o vínculo ativo do usuário, usado no login
// para determinar igreja e papel. Cada usuário possui no máximo um vínculo
// ativo.
func (q *Queries) GetMembershipByUsuario(ctx context.Context, usuarioID uuid.UUID) (Membership, error) {
	const query = `
        SELECT u.id, u.nome, u.email, i.id, i.nome, v.papel
        FROM vinculos v
        JOIN usuarios u ON u.id = v.usuario_id AND u.ativo
        JOIN igrejas i ON i.id = v.igreja_id AND i.ativa
        WHERE v.usuario_id = $1 AND v.ativo
        LIMIT 1
    `

	var m Membership
	err := q.pool.QueryRow(ctx, query, usuarioID).
		Scan(&m.UsuarioID, &m.Nome, &m.Email, &m.IgrejaID, &m.IgrejaNome, &m.Papel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// ListRedeIDsByLider carrega as redes atribuídas ao usuário na igreja.
func (q *Queries) ListRedeIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
        SELECT rede_id
        FROM lideres_redes
        WHERE igreja_id = $1 AND usuario_id = $2
    `
	return q.listIDs(ctx, query, igrejaID, usuarioID)
}

// ListCelulaIDsByLider carrega as células atribuídas ao usuário na igreja.
func (q *Queries) ListCelulaIDsByLider(ctx context.Context, igrejaID, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
        SELECT celula_id
        FROM lideres_celulas
        WHERE igreja_id = $1 AND usuario_id = $2
    `
	return q.listIDs(ctx, query, igrejaID, usuarioID)
}

func (q *Queries) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
