package access

import (
	"errors"

	"github.com/gestaocelulas/igreja/internal/rbac"
)

var (
	// ErrForbidden indica ator autenticado sem permissão ou escopo.
	ErrForbidden = errors.New("acesso negado")
)

// Require verifica a matriz de permissões antes de qualquer operação do
// painel. É pré-condição: ou aborta a operação inteira ou a deixa passar
// intocada.
func Require(ac *Context, module rbac.Module, action rbac.Action) error {
	if ac == nil {
		return ErrForbidden
	}
	if !rbac.Can(ac.Papel, module, action) {
		return ErrForbidden
	}
	return nil
}
