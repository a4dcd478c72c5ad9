package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/oprema/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	marathonsHandler := &MarathonsHandler{DB: db}
	stationsHandler := &StationsHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db}
	ledgerHandler := &LedgerHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStorekeeper := RequireRole(model.RoleStorekeeper)

	// all wraps a handler for any authenticated user.
	all := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	keeper := func(h http.HandlerFunc) http.Handler { return authMW(requireStorekeeper(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("PUT /api/auth/password", all(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", all(authHandler.Logout))

	// Users and marathon assignments (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("GET /api/users/{id}/marathons", admin(usersHandler.GetMarathons))
	mux.Handle("PUT /api/users/{id}/marathons", admin(usersHandler.SetMarathons))

	// Marathons: read scoped to assignments, quick-create (storekeeper+),
	// rename and delete (admin).
	mux.Handle("GET /api/marathons", all(marathonsHandler.List))
	mux.Handle("POST /api/marathons", keeper(marathonsHandler.Create))
	mux.Handle("PUT /api/marathons/{id}", admin(marathonsHandler.Update))
	mux.Handle("DELETE /api/marathons/{id}", admin(marathonsHandler.Delete))
	mux.Handle("GET /api/marathons/{id}/outstanding", all(marathonsHandler.Outstanding))
	mux.Handle("GET /api/marathons/{id}/summary", all(marathonsHandler.Summary))
	mux.Handle("GET /api/marathons/{id}/store-outstanding", keeper(marathonsHandler.StoreOutstanding))
	mux.Handle("GET /api/marathons/{id}/transactions", all(marathonsHandler.Transactions))
	mux.Handle("GET /api/marathons/{id}/export.xlsx", keeper(marathonsHandler.Export))

	// Stations: read (all), quick-create (storekeeper+), rename and delete (admin).
	mux.Handle("GET /api/stations", all(stationsHandler.List))
	mux.Handle("POST /api/stations", keeper(stationsHandler.Create))
	mux.Handle("PUT /api/stations/{id}", admin(stationsHandler.Update))
	mux.Handle("DELETE /api/stations/{id}", admin(stationsHandler.Delete))
	mux.Handle("GET /api/persons", all(stationsHandler.Persons))

	// Equipment: read (all), stock and photos (storekeeper+), rename and delete (admin).
	mux.Handle("GET /api/equipment", all(equipmentHandler.List))
	mux.Handle("POST /api/equipment", keeper(equipmentHandler.Create))
	mux.Handle("PUT /api/equipment/quantity", keeper(equipmentHandler.SetAllQuantities))
	mux.Handle("PUT /api/equipment/{id}", admin(equipmentHandler.Update))
	mux.Handle("DELETE /api/equipment/{id}", admin(equipmentHandler.Delete))
	mux.Handle("PUT /api/equipment/{id}/quantity", keeper(equipmentHandler.SetQuantity))
	mux.Handle("PUT /api/equipment/{id}/image", keeper(equipmentHandler.UploadImage))
	mux.Handle("GET /api/equipment/{id}/image", all(equipmentHandler.GetImage))

	// Ledgers: store kinds are checked for storekeeper+ inside the store.
	mux.Handle("POST /api/ledger/{kind}", all(ledgerHandler.Append))
	mux.Handle("PUT /api/records/{kind}/{id}", admin(ledgerHandler.UpdateRecord))
	mux.Handle("DELETE /api/records/{kind}/{id}", admin(ledgerHandler.DeleteRecord))

	return mux
}
