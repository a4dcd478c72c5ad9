package web

import (
	"database/sql"
	"net/http"

	webembed "github.com/erazemk/oprema/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	page := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", page(s.Dashboard))

	for kind, path := range ledgerPaths {
		mux.Handle("GET "+path, page(s.LedgerPage(kind)))
		mux.Handle("POST "+path, page(s.LedgerSubmit(kind)))
	}

	mux.Handle("GET /report", page(s.ReportPage))
	mux.Handle("GET /reconciliation", page(s.ReconciliationPage))
	mux.Handle("GET /marathons/{id}/export.xlsx", page(s.ExportWorkbook))

	mux.Handle("GET /equipment", page(s.EquipmentPage))
	mux.Handle("POST /equipment", page(s.EquipmentCreateSubmit))
	mux.Handle("POST /equipment/quantity", page(s.QuantityAllSubmit))
	mux.Handle("POST /equipment/{id}", page(s.EquipmentRenameSubmit))
	mux.Handle("POST /equipment/{id}/delete", page(s.EquipmentDeleteSubmit))
	mux.Handle("POST /equipment/{id}/quantity", page(s.QuantitySubmit))
	mux.Handle("GET /equipment/{id}/image", page(s.ImageGet))
	mux.Handle("POST /equipment/{id}/image", page(s.ImageSubmit))

	for _, k := range []referenceKind{stationKind, marathonKind} {
		mux.Handle("GET "+k.Path, page(s.ReferencePage(k)))
		mux.Handle("POST "+k.Path, page(s.ReferenceCreate(k)))
		mux.Handle("POST "+k.Path+"/{id}", page(s.ReferenceRename(k)))
		mux.Handle("POST "+k.Path+"/{id}/delete", page(s.ReferenceDelete(k)))
	}

	mux.Handle("GET /records/{kind}/{id}", page(s.RecordEditPage))
	mux.Handle("POST /records/{kind}/{id}", page(s.RecordUpdateSubmit))
	mux.Handle("POST /records/{kind}/{id}/delete", page(s.RecordDeleteSubmit))

	mux.Handle("GET /users", page(s.UsersPage))
	mux.Handle("POST /users", page(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", page(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", page(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/delete", page(s.UserDeleteSubmit))
	mux.Handle("POST /users/{id}/marathons", page(s.UserMarathonsSubmit))

	mux.Handle("GET /settings", page(s.SettingsPage))
	mux.Handle("POST /settings", page(s.SettingsSubmit))

	return mux, nil
}
