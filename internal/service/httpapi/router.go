package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты публичного API.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Get("/{userId}", handler.GetCart)
			r.Post("/", handler.CreateCart)
			r.Post("/add-item", handler.AddItem)
			r.Put("/update-item", handler.UpdateItem)
			r.Delete("/remove-item/{cartItemId}", handler.RemoveItem)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/{externalId}", handler.GetUser)
			r.Post("/", handler.CreateOrUpdateUser)
		})
		r.Post("/order-email/send-order-confirmation", handler.SendOrderConfirmation)
	})
	return r
}
