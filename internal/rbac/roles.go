package rbac

import "errors"

var (
	// ErrInvalidRole indica papel fora do conjunto canônico e dos legados.
	ErrInvalidRole = errors.New("papel inválido")
)

// Role é um papel canônico do painel.
type Role string

const (
	RoleAdminGeral       Role = "admin_geral"
	RolePastorPresidente Role = "pastor_presidente"
	RolePastorRede       Role = "pastor_rede"
	RoleLiderCelula      Role = "lider_celula"
	RoleSecretaria       Role = "secretaria"
)

// legacyRoles mapeia papéis herdados de versões antigas do cadastro.
var legacyRoles = map[string]Role{
	"owner":  RoleAdminGeral,
	"admin":  RoleAdminGeral,
	"leader": RoleLiderCelula,
	"member": RoleLiderCelula,
}

// Roles devolve o conjunto canônico em ordem estável.
func Roles() []Role {
	return []Role{
		RoleAdminGeral,
		RolePastorPresidente,
		RolePastorRede,
		RoleLiderCelula,
		RoleSecretaria,
	}
}

// Valid informa se o papel pertence ao conjunto canônico.
func (r Role) Valid() bool {
	switch r {
	case RoleAdminGeral, RolePastorPresidente, RolePastorRede, RoleLiderCelula, RoleSecretaria:
		return true
	}
	return false
}

// Normalize converte papéis legados no papel canônico equivalente.
// Valores já canônicos passam inalterados; qualquer outro valor é
// rejeitado em vez de cair num papel padrão silencioso.
func Normalize(raw string) (Role, error) {
	if role := Role(raw); role.Valid() {
		return role, nil
	}
	if role, ok := legacyRoles[raw]; ok {
		return role, nil
	}
	return "", ErrInvalidRole
}

// ScopeKind descreve a visibilidade derivada do papel.
type ScopeKind string

const (
	ScopeAll    ScopeKind = "all"
	ScopeRede   ScopeKind = "rede"
	ScopeCelula ScopeKind = "celula"
)

var roleScopes = map[Role]ScopeKind{
	RoleAdminGeral:       ScopeAll,
	RolePastorPresidente: ScopeAll,
	RolePastorRede:       ScopeRede,
	RoleLiderCelula:      ScopeCelula,
	RoleSecretaria:       ScopeAll,
}

// ScopeOf devolve o escopo fixo do papel. Nunca é persistido: é sempre
// recalculado a partir do papel.
func ScopeOf(role Role) ScopeKind {
	return roleScopes[role]
}
