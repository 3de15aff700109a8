package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indica igreja inexistente.
	ErrNotFound = errors.New("igreja não encontrada")
)

// Igreja representa um tenant da plataforma. O slug é gerado pelo sistema
// na criação e imutável depois disso.
type Igreja struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	Slug     string    `json:"slug"`
	Ativa    bool      `json:"ativa"`
	CriadoEm time.Time `json:"criado_em"`
}
