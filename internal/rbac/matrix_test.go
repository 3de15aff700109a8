package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrizCompleta(t *testing.T) {
	for _, role := range Roles() {
		perModule, ok := matrix[role]
		require.True(t, ok, "papel %s sem entrada na matriz", role)
		require.Len(t, perModule, len(Modules()), "papel %s com módulos faltando", role)
		for _, module := range Modules() {
			set := AllowedActions(role, module)
			assert.NotNil(t, set, "par (%s, %s) indefinido", role, module)
		}
	}
}

func TestEscopoDeterministico(t *testing.T) {
	expected := map[Role]ScopeKind{
		RoleAdminGeral:       ScopeAll,
		RolePastorPresidente: ScopeAll,
		RolePastorRede:       ScopeRede,
		RoleLiderCelula:      ScopeCelula,
		RoleSecretaria:       ScopeAll,
	}

	for role, kind := range expected {
		assert.Equal(t, kind, ScopeOf(role))
		// chamadas repetidas devolvem o mesmo valor
		assert.Equal(t, ScopeOf(role), ScopeOf(role))
	}
}

func TestPoliticaPorPapel(t *testing.T) {
	cases := []struct {
		role    Role
		module  Module
		action  Action
		allowed bool
	}{
		{RoleAdminGeral, ModuleEmail, ActionDelete, true},
		{RolePastorPresidente, ModuleCellsAdmin, ActionEdit, true},
		{RolePastorPresidente, ModuleCellsAdmin, ActionDelete, false},
		{RolePastorPresidente, ModuleDashboard, ActionEdit, false},
		{RolePastorRede, ModuleCellsAdmin, ActionView, true},
		{RolePastorRede, ModuleCellsAdmin, ActionExport, false},
		{RolePastorRede, ModulePastorPresidente, ActionView, false},
		{RolePastorRede, ModulePastorRede, ActionCreate, true},
		{RoleLiderCelula, ModulePastorPresidente, ActionView, false},
		{RoleLiderCelula, ModulePastorRede, ActionView, false},
		{RoleLiderCelula, ModuleDiscipleship, ActionCreate, true},
		{RoleLiderCelula, ModuleDashboard, ActionPrint, true},
		{RoleSecretaria, ModuleConsolidation, ActionEdit, true},
		{RoleSecretaria, ModulePastorPresidente, ActionView, true},
		{RoleSecretaria, ModulePastorPresidente, ActionCreate, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, Can(tc.role, tc.module, tc.action),
			"%s × %s × %s", tc.role, tc.module, tc.action)
	}
}

func TestApenasAdminDeleta(t *testing.T) {
	for _, role := range Roles() {
		if role == RoleAdminGeral {
			continue
		}
		for _, module := range Modules() {
			assert.False(t, Can(role, module, ActionDelete), "%s não deveria deletar em %s", role, module)
		}
	}
}
