package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/relay-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

// NewAdminRouter — отдельный листенер лицензионной админки.
// /api/check-now открыт для устройств, /admin/* — только с токеном.
func NewAdminRouter(h *AdminHandler, adminToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(middlewareChi.Timeout(30 * time.Second))

	r.Post("/api/check-now", h.CheckNow)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AdminAuth(adminToken))

		pr.Route("/admin", func(ar chi.Router) {
			ar.Route("/devices", func(dr chi.Router) {
				dr.Get("/", h.ListDevices)
				dr.Post("/new", h.CreateDevice)

				dr.Route("/{id}", func(ir chi.Router) {
					ir.Post("/block", h.BlockDevice)
					ir.Post("/unblock", h.UnblockDevice)
					ir.Post("/unlock", h.UnlockDevice)
					ir.Patch("/rename", h.RenameDevice)
					ir.Patch("/group", h.AssignGroup)
					ir.Delete("/", h.DeleteDevice)
				})
			})

			ar.Route("/groups", func(gr chi.Router) {
				gr.Get("/", h.ListGroups)
				gr.Post("/", h.CreateGroup)

				gr.Route("/{name}", func(nr chi.Router) {
					nr.Post("/lock", h.LockGroup)
					nr.Post("/unlock", h.UnlockGroup)
					nr.Delete("/", h.DeleteGroup)
				})
			})
		})
	})

	return r
}
