package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaocelulas/igreja/internal/access"
)

// Access monta o contexto de acesso da requisição a partir das claims já
// validadas. O token pode ser estruturalmente válido e o vínculo não existir
// mais; nesse caso a sessão é tratada como expirada.
func Access(builder *access.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			usuarioID, err := uuid.Parse(GetSubject(r.Context()))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}
			igrejaID, err := uuid.Parse(GetIgreja(r.Context()))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "igreja inválida")
				return
			}

			ac, err := builder.Build(r.Context(), usuarioID, igrejaID)
			if err != nil {
				if errors.Is(err, access.ErrSessionInvalid) {
					writeError(w, http.StatusUnauthorized, "SESSION", "sessão expirada")
					return
				}
				log.Error().Err(err).Str("usuario_id", usuarioID.String()).Msg("falha ao montar contexto de acesso")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithContext(r.Context(), ac)))
		})
	}
}
