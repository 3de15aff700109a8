package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaocelulas/igreja/internal/db"
)

// Service contém as regras de negócio de cadastro e consulta de igrejas.
type Service struct {
	repo *Repository
	pool *pgxpool.Pool
}

// NewService cria uma nova instância de Service.
func NewService(repo *Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

// Create registra uma igreja com slug alocado a partir do nome. A unicidade
// é garantida pela constraint do banco; colisões avançam a sequência de
// candidatos.
func (s *Service) Create(ctx context.Context, nome string) (*Igreja, error) {
	var created *Igreja

	allocator := Allocator{
		Insert: func(ctx context.Context, slug string) error {
			igreja, err := Insert(ctx, s.pool, nome, slug)
			if err != nil {
				return err
			}
			created = igreja
			return nil
		},
		Conflict: func(err error) bool {
			_, ok := db.UniqueViolation(err)
			return ok
		},
	}

	if _, err := allocator.Allocate(ctx, nome); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID devolve igreja pelo identificador.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Igreja, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve todas as igrejas.
func (s *Service) List(ctx context.Context) ([]Igreja, error) {
	return s.repo.List(ctx)
}
