package panel

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaocelulas/igreja/internal/access"
	"github.com/gestaocelulas/igreja/internal/util"
)

// Handler orquestra as rotas do painel.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessao", h.handleSessao)
	r.Get("/busca", h.handleBusca)
	r.Get("/dashboard", h.handleDashboard)

	r.Get("/celulas", h.handleListCelulas)
	r.Get("/celulas/{id}", h.handleGetCelula)
	r.Get("/redes", h.handleListRedes)
	r.Get("/redes/{id}", h.handleGetRede)

	r.Get("/transferencias/contexto", h.handleTransferContexto)
	r.Post("/transferencias", h.handleTransferir)

	r.Route("/nomenclatura", func(r chi.Router) {
		r.Get("/", h.handleGetNomenclatura)
		r.Put("/", h.handleSaveNomenclatura)
		r.Post("/restaurar", h.handleRestoreNomenclatura)
	})

	r.Get("/reunioes", h.handleListReunioes)
	r.Post("/reunioes", h.handleCreateReuniao)

	r.Get("/emails", h.handleListEmails)
	r.Post("/emails", h.handleCreateEmail)

	r.Get("/lideres", h.handleListLideres)
	r.Post("/lideres/{id}/promover", h.handlePromover)

	r.Route("/consolidacoes", func(r chi.Router) {
		r.Get("/", h.handleListConsolidacoes)
		r.Post("/", h.handleCreateConsolidacao)
		r.Get("/{id}", h.handleGetConsolidacao)
		r.Put("/{id}", h.handleUpdateConsolidacao)
	})
}

func (h *Handler) handleSessao(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	sessao, err := h.service.Sessao(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessao)
}

func (h *Handler) handleBusca(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	resultado, err := h.service.Buscar(r.Context(), ac, r.URL.Query().Get("q"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultado)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	kpis, err := h.service.Dashboard(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (h *Handler) handleListCelulas(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	celulas, err := h.service.ListCelulas(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"celulas": celulas})
}

func (h *Handler) handleGetCelula(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	celulaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	detalhe, err := h.service.GetCelula(r.Context(), ac, celulaID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detalhe)
}

func (h *Handler) handleListRedes(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	redes, err := h.service.ListRedes(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redes": redes})
}

func (h *Handler) handleGetRede(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	redeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	detalhe, err := h.service.GetRede(r.Context(), ac, redeID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detalhe)
}

func (h *Handler) handleTransferContexto(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var origemID *uuid.UUID
	if raw := r.URL.Query().Get("celula"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "celula inválida", nil)
			return
		}
		origemID = &id
	}

	contexto, err := h.service.TransferContexto(r.Context(), ac, origemID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contexto)
}

func (h *Handler) handleTransferir(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var input TransferirInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if input.ParticipanteID == uuid.Nil || input.CelulaOrigemID == uuid.Nil || input.CelulaDestinoID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "participante, origem e destino são obrigatórios", nil)
		return
	}

	if err := h.service.Transferir(r.Context(), ac, input); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferido"})
}

func (h *Handler) handleGetNomenclatura(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	rotulos, err := h.service.GetNomenclatura(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rotulos": rotulos})
}

func (h *Handler) handleSaveNomenclatura(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var payload struct {
		Rotulos map[string]string `json:"rotulos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.service.SaveNomenclatura(r.Context(), ac, payload.Rotulos); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) handleRestoreNomenclatura(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	if err := h.service.RestoreNomenclatura(r.Context(), ac); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (h *Handler) handleListReunioes(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	reunioes, err := h.service.ListReunioesGD(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reunioes": reunioes})
}

func (h *Handler) handleCreateReuniao(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var payload struct {
		CelulaID  uuid.UUID `json:"celula_id"`
		Data      string    `json:"data"`
		Tema      string    `json:"tema"`
		Presentes int       `json:"presentes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	data := time.Now()
	if payload.Data != "" {
		parsed, err := time.Parse("2006-01-02", payload.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "data inválida", nil)
			return
		}
		data = parsed
	}

	reuniao, err := h.service.CreateReuniaoGD(r.Context(), ac, ReuniaoGD{
		CelulaID:  payload.CelulaID,
		Data:      data,
		Tema:      payload.Tema,
		Presentes: payload.Presentes,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reuniao)
}

func (h *Handler) handleListEmails(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	emails, err := h.service.ListEmails(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"emails": emails})
}

func (h *Handler) handleCreateEmail(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var payload struct {
		Destinatario string `json:"destinatario"`
		Assunto      string `json:"assunto"`
		Corpo        string `json:"corpo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	email, err := h.service.CreateEmail(r.Context(), ac, EmailLog{
		Destinatario: payload.Destinatario,
		Assunto:      payload.Assunto,
		Corpo:        payload.Corpo,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, email)
}

func (h *Handler) handleListLideres(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	lideres, err := h.service.ListLideres(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lideres": lideres})
}

func (h *Handler) handlePromover(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	participanteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	participante, err := h.service.PromoverParticipante(r.Context(), ac, participanteID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participante)
}

func (h *Handler) handleListConsolidacoes(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	consolidacoes, err := h.service.ListConsolidacoes(r.Context(), ac)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consolidacoes": consolidacoes})
}

func (h *Handler) handleGetConsolidacao(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	consolidacao, err := h.service.GetConsolidacao(r.Context(), ac, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consolidacao)
}

func (h *Handler) handleCreateConsolidacao(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	var payload struct {
		CelulaID   uuid.UUID `json:"celula_id"`
		Nome       string    `json:"nome"`
		Telefone   string    `json:"telefone"`
		Observacao *string   `json:"observacao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	consolidacao, err := h.service.CreateConsolidacao(r.Context(), ac, Consolidacao{
		CelulaID:   payload.CelulaID,
		Nome:       payload.Nome,
		Telefone:   payload.Telefone,
		Observacao: payload.Observacao,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, consolidacao)
}

func (h *Handler) handleUpdateConsolidacao(w http.ResponseWriter, r *http.Request) {
	ac, ok := access.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Status     string  `json:"status"`
		Observacao *string `json:"observacao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.service.UpdateConsolidacao(r.Context(), ac, id, payload.Status, payload.Observacao); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("panel handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
