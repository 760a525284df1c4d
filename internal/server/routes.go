package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/httpx/reply"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/middlewarex"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/relics", func(r chi.Router) {
				r.Post("/parse", handler(s.postV1RelicsParse))
				r.Get("/queue", handler(s.getV1RelicsQueue))
			})
		})
	})
}

// Handler собирает роутер с цепочкой middleware.
func (s Server) Handler(
	log *slog.Logger,
	sensitiveDataMasker logx.SensitiveDataMaskerInterface,
	logFieldMaxLen int,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger(log),
		middlewarex.Recovery,
		middlewarex.RequestLogging(sensitiveDataMasker, logFieldMaxLen),
		middlewarex.ResponseLogging(sensitiveDataMasker, logFieldMaxLen),
	)

	s.RegisterRoutes(r)

	return r
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
