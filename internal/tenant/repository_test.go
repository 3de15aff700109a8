package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocelulas/igreja/internal/db"
)

// txAbortavel simula a semântica de erro do Postgres numa transação: após
// um comando falhar, todos os seguintes são rejeitados com 25P02 até um
// ROLLBACK TO SAVEPOINT.
type txAbortavel struct {
	pgx.Tx
	slugs      map[string]bool
	abortada   bool
	savepoints int
}

func newTxAbortavel(existing ...string) *txAbortavel {
	tx := &txAbortavel{slugs: make(map[string]bool)}
	for _, slug := range existing {
		tx.slugs[slug] = true
	}
	return tx
}

func (t *txAbortavel) Begin(ctx context.Context) (pgx.Tx, error) {
	t.savepoints++
	return &savepointAbortavel{parent: t}, nil
}

type savepointAbortavel struct {
	pgx.Tx
	parent *txAbortavel
}

func (s *savepointAbortavel) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.parent.abortada {
		return rowErro{err: &pgconn.PgError{Code: "25P02", Message: "current transaction is aborted"}}
	}

	nome := args[0].(string)
	slug := args[1].(string)
	if s.parent.slugs[slug] {
		s.parent.abortada = true
		return rowErro{err: &pgconn.PgError{Code: "23505", ConstraintName: "igrejas_slug_key"}}
	}
	s.parent.slugs[slug] = true
	return rowIgreja{nome: nome, slug: slug}
}

func (s *savepointAbortavel) Rollback(ctx context.Context) error {
	s.parent.abortada = false
	return nil
}

func (s *savepointAbortavel) Commit(ctx context.Context) error {
	return nil
}

type rowErro struct {
	err error
}

func (r rowErro) Scan(dest ...any) error {
	return r.err
}

type rowIgreja struct {
	nome string
	slug string
}

func (r rowIgreja) Scan(dest ...any) error {
	*(dest[0].(*uuid.UUID)) = uuid.New()
	*(dest[1].(*string)) = r.nome
	*(dest[2].(*string)) = r.slug
	*(dest[3].(*bool)) = true
	*(dest[4].(*time.Time)) = time.Now()
	return nil
}

func insertTxAllocator(tx pgx.Tx, nome string, criado **Igreja) Allocator {
	return Allocator{
		Insert: func(ctx context.Context, slug string) error {
			igreja, err := InsertTx(ctx, tx, nome, slug)
			if err != nil {
				return err
			}
			*criado = igreja
			return nil
		},
		Conflict: func(err error) bool {
			_, ok := db.UniqueViolation(err)
			return ok
		},
	}
}

func TestInsertTxRetryAposColisao(t *testing.T) {
	tx := newTxAbortavel("graca-viva")

	var criado *Igreja
	allocator := insertTxAllocator(tx, "Graça Viva", &criado)

	slug, err := allocator.Allocate(context.Background(), "Graça Viva")
	require.NoError(t, err)
	assert.Equal(t, "graca-viva-2", slug)

	require.NotNil(t, criado)
	assert.Equal(t, "graca-viva-2", criado.Slug)

	// cada tentativa abriu o próprio savepoint e a colisão foi desfeita
	// sem derrubar a transação externa
	assert.Equal(t, 2, tx.savepoints)
	assert.False(t, tx.abortada)
}

func TestInsertTxColisoesEncadeadas(t *testing.T) {
	tx := newTxAbortavel("graca-viva", "graca-viva-2", "graca-viva-3")

	var criado *Igreja
	allocator := insertTxAllocator(tx, "Graça Viva", &criado)

	slug, err := allocator.Allocate(context.Background(), "Graça Viva")
	require.NoError(t, err)
	assert.Equal(t, "graca-viva-4", slug)
	assert.Equal(t, 4, tx.savepoints)
	assert.False(t, tx.abortada)
}
