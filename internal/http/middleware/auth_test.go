package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocelulas/igreja/internal/auth"
)

func TestAuthInjetaClaimsNoContexto(t *testing.T) {
	jwtManager := auth.NewJWTManager("um-segredo-de-teste-com-32-chars!!", 15*time.Minute)
	usuarioID := uuid.New()
	igrejaID := uuid.New()

	token, err := jwtManager.GenerateAccessToken(usuarioID, igrejaID, "lider_celula")
	require.NoError(t, err)

	var subject, igreja, papel string
	handler := Auth(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		igreja = GetIgreja(r.Context())
		papel = GetPapel(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usuarioID.String(), subject)
	assert.Equal(t, igrejaID.String(), igreja)
	assert.Equal(t, "lider_celula", papel)
}

func TestAuthRejeitaTokenAusenteOuInvalido(t *testing.T) {
	jwtManager := auth.NewJWTManager("um-segredo-de-teste-com-32-chars!!", 15*time.Minute)

	handler := Auth(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria ser alcançado")
	}))

	casos := []struct {
		name   string
		header string
	}{
		{"sem header", ""},
		{"esquema errado", "Basic abc123"},
		{"token inválido", "Bearer nao-e-um-jwt"},
	}

	for _, tc := range casos {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
