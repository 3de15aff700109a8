package rbac

// Module é uma área funcional do painel com controle próprio de acesso.
type Module string

const (
	ModuleDashboard        Module = "dashboard"
	ModuleCellsAdmin       Module = "cells_admin"
	ModuleDiscipleship     Module = "discipleship"
	ModuleConsolidation    Module = "consolidation"
	ModuleLeadershipSchool Module = "leadership_school"
	ModulePastorPresidente Module = "pastor_presidente"
	ModulePastorRede       Module = "pastor_rede"
	ModuleLiderCelula      Module = "lider_celula"
	ModuleEmail            Module = "email"
)

// Action é uma operação possível dentro de um módulo.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionPrint  Action = "print"
)

// Modules devolve todos os módulos em ordem estável.
func Modules() []Module {
	return []Module{
		ModuleDashboard,
		ModuleCellsAdmin,
		ModuleDiscipleship,
		ModuleConsolidation,
		ModuleLeadershipSchool,
		ModulePastorPresidente,
		ModulePastorRede,
		ModuleLiderCelula,
		ModuleEmail,
	}
}

// Actions devolve todas as ações em ordem estável.
func Actions() []Action {
	return []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport, ActionPrint}
}

// ActionSet é um conjunto imutável de ações permitidas.
type ActionSet map[Action]struct{}

// Has informa se a ação pertence ao conjunto.
func (s ActionSet) Has(action Action) bool {
	_, ok := s[action]
	return ok
}

func actions(list ...Action) ActionSet {
	set := make(ActionSet, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return set
}

var (
	allActions = actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport, ActionPrint)
	manage     = actions(ActionView, ActionCreate, ActionEdit, ActionExport, ActionPrint)
	readOnly   = actions(ActionView, ActionExport, ActionPrint)
	viewOnly   = actions(ActionView)
	none       = actions()
)

// matrix é a política autoritativa papel × módulo. Construída uma vez na
// inicialização do processo e jamais alterada depois, pode ser lida por
// requisições concorrentes sem sincronização.
var matrix = map[Role]map[Module]ActionSet{
	RoleAdminGeral: {
		ModuleDashboard:        allActions,
		ModuleCellsAdmin:       allActions,
		ModuleDiscipleship:     allActions,
		ModuleConsolidation:    allActions,
		ModuleLeadershipSchool: allActions,
		ModulePastorPresidente: allActions,
		ModulePastorRede:       allActions,
		ModuleLiderCelula:      allActions,
		ModuleEmail:            allActions,
	},
	RolePastorPresidente: {
		ModuleDashboard:        readOnly,
		ModuleCellsAdmin:       manage,
		ModuleDiscipleship:     readOnly,
		ModuleConsolidation:    manage,
		ModuleLeadershipSchool: readOnly,
		ModulePastorPresidente: manage,
		ModulePastorRede:       readOnly,
		ModuleLiderCelula:      readOnly,
		ModuleEmail:            manage,
	},
	RolePastorRede: {
		ModuleDashboard:        readOnly,
		ModuleCellsAdmin:       viewOnly,
		ModuleDiscipleship:     readOnly,
		ModuleConsolidation:    manage,
		ModuleLeadershipSchool: readOnly,
		ModulePastorPresidente: none,
		ModulePastorRede:       manage,
		ModuleLiderCelula:      readOnly,
		ModuleEmail:            manage,
	},
	RoleLiderCelula: {
		ModuleDashboard:        readOnly,
		ModuleCellsAdmin:       viewOnly,
		ModuleDiscipleship:     manage,
		ModuleConsolidation:    manage,
		ModuleLeadershipSchool: readOnly,
		ModulePastorPresidente: none,
		ModulePastorRede:       none,
		ModuleLiderCelula:      manage,
		ModuleEmail:            manage,
	},
	RoleSecretaria: {
		ModuleDashboard:        readOnly,
		ModuleCellsAdmin:       manage,
		ModuleDiscipleship:     manage,
		ModuleConsolidation:    manage,
		ModuleLeadershipSchool: readOnly,
		ModulePastorPresidente: readOnly,
		ModulePastorRede:       readOnly,
		ModuleLiderCelula:      readOnly,
		ModuleEmail:            manage,
	},
}

// AllowedActions devolve o conjunto de ações do papel no módulo. Todo par
// (papel, módulo) resolve para um conjunto, possivelmente vazio; um par sem
// entrada na tabela é defeito de configuração, coberto por teste de
// completude, nunca um erro em tempo de execução.
func AllowedActions(role Role, module Module) ActionSet {
	return matrix[role][module]
}

// Can informa se o papel pode executar a ação no módulo.
func Can(role Role, module Module, action Action) bool {
	return AllowedActions(role, module).Has(action)
}
