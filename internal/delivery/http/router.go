package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"teamo/internal/delivery/http/controllers"
)

// Middleware wraps a handler func, e.g. the auth guard.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	tokenController *controllers.TokenController,
	inviteController *controllers.InviteController,
	employeeController *controllers.EmployeeController,
	requireAuth Middleware,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Token service endpoints, consumed by remote TokenService clients that
	// hold no key material.
	mux.HandleFunc("POST /token/new", tokenController.New)
	mux.HandleFunc("POST /token/decrypt", tokenController.Decrypt)

	// Invitation protocol
	mux.HandleFunc("POST /invite/verify", inviteController.Verify)
	mux.HandleFunc("POST /invite/accept", inviteController.Accept)

	// Workspace administration
	mux.HandleFunc("POST /employees/invite", requireAuth(employeeController.Invite))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
