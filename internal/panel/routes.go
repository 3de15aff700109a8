package panel

import "github.com/go-chi/chi/v5"

// Mount registra as rotas do painel no roteador informado.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
