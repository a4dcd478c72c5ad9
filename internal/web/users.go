package web

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

type userRow struct {
	model.User
	MarathonIDs []int64
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	ctx := r.Context()

	users, err := store.ListUsers(ctx, s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}
	marathons, err := store.ListMarathons(ctx, s.DB)
	if err != nil {
		slog.Error("failed to list marathons", "error", err)
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		ids, err := store.ListUserMarathonIDs(ctx, s.DB, u.ID)
		if err != nil {
			slog.Error("failed to list user marathons", "user", u.ID, "error", err)
		}
		rows = append(rows, userRow{User: u, MarathonIDs: ids})
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users     []userRow
		Marathons []model.Marathon
		Roles     []string
	}{
		PageData:  s.page(r, "Users"),
		Users:     rows,
		Marathons: marathons,
		Roles:     []string{model.RoleUser, model.RoleStorekeeper, model.RoleAdmin},
	})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || password == "" || !model.ValidRole(role) {
		redirectError(w, r, "/users", "Enter a username, password and role.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		redirectError(w, r, "/users", "The password must be at least 8 characters.")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err == nil && existing != nil && existing.DeletedAt == nil {
		redirectError(w, r, "/users", "That username is taken.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	u, err := store.CreateUser(r.Context(), s.DB, username, string(hash), role)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		redirectError(w, r, "/users", "Creating the user failed.")
		return
	}

	slog.Info("user created", "by", webActor(r).Username, "user", u.Username, "role", u.Role)
	redirectNotice(w, r, "/users", "User created.")
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectError(w, r, "/users", "The password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "user", id, "error", err)
		redirectError(w, r, "/users", "Resetting the password failed.")
		return
	}

	slog.Info("password reset", "by", webActor(r).Username, "user", id)
	redirectNotice(w, r, "/users", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if id == webActor(r).UserID {
		redirectError(w, r, "/users", "You cannot change your own role.")
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		redirectError(w, r, "/users", "Choose a valid role.")
		return
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "user", id, "error", err)
		redirectError(w, r, "/users", "Changing the role failed.")
		return
	}

	slog.Info("role changed", "by", webActor(r).Username, "user", id, "role", role)
	redirectNotice(w, r, "/users", "Role changed.")
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if id == webActor(r).UserID {
		redirectError(w, r, "/users", "You cannot delete yourself.")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "user", id, "error", err)
		redirectError(w, r, "/users", "Deleting the user failed.")
		return
	}

	slog.Info("user deleted", "by", webActor(r).Username, "user", id)
	redirectNotice(w, r, "/users", "User deleted.")
}

// UserMarathonsSubmit handles POST /users/{id}/marathons (admin only),
// replacing the user's marathon assignments with the checked ones.
func (s *Server) UserMarathonsSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var ids []int64
	for _, v := range r.PostForm["marathon"] {
		if mid := formID(v); mid > 0 {
			ids = append(ids, mid)
		}
	}

	if err := store.SetUserMarathons(r.Context(), s.DB, id, ids); err != nil {
		slog.Error("failed to set user marathons", "user", id, "error", err)
		redirectError(w, r, "/users", "Saving assignments failed.")
		return
	}

	slog.Info("marathon assignments changed", "by", webActor(r).Username, "user", id, "marathons", len(ids))
	redirectNotice(w, r, "/users", "Assignments saved.")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Settings")
	s.Templates.Render(w, "settings.html", &data)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		redirectError(w, r, "/settings", "Enter your current and new password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectError(w, r, "/settings", "The new password must be at least 8 characters.")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		redirectError(w, r, "/settings", "Could not load your account.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		redirectError(w, r, "/settings", "The current password is wrong.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		redirectError(w, r, "/settings", "Saving the password failed.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		slog.Error("failed to update password", "user", claims.UserID, "error", err)
		redirectError(w, r, "/settings", "Saving the password failed.")
		return
	}

	slog.Info("password changed", "user", claims.Username)
	redirectNotice(w, r, "/settings", "Password changed.")
}
