package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	httpmiddleware "github.com/gestaocelulas/igreja/internal/http/middleware"
	"github.com/gestaocelulas/igreja/internal/repo"
	"github.com/gestaocelulas/igreja/internal/service"
	"github.com/gestaocelulas/igreja/internal/util"
)

// Me retorna o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	profile, err := h.authService.GetMe(r.Context(), usuarioID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar perfil", nil)
		return
	}

	// o papel vem das claims do token, sem ida extra ao banco
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":  profile,
		"papel": httpmiddleware.GetPapel(r.Context()),
	})
}

// UpdateMe atualiza nome e e-mail da conta.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.authService.UpdateMe(r.Context(), usuarioID, payload.Nome, payload.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailEmUso):
			WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
		case util.IsValidation(err):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		case errors.Is(err, repo.ErrNotFound):
			WriteError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar perfil", nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteMe desativa a conta do usuário autenticado.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	if err := h.authService.DeleteMe(r.Context(), usuarioID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "SESSION", "sessão expirada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível desativar conta", nil)
		return
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func subjectUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(httpmiddleware.GetSubject(r.Context()))
}
