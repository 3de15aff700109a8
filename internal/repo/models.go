package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa uma conta de acesso ao painel.
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	SenhaHash string
	Ativo     bool
	CriadoEm  time.Time
}

// Membership agrega usuário, igreja e papel ativos para montagem do
// contexto de acesso. Só é devolvido quando usuário, igreja e vínculo
// estão todos ativos.
type Membership struct {
	UsuarioID  uuid.UUID
	Nome       string
	Email      string
	IgrejaID   uuid.UUID
	IgrejaNome string
	Papel      string
}
