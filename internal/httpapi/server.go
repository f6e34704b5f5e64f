// Package httpapi exposes the chat coordinator over a JSON HTTP API.
// Clients authenticate with the bearer token returned by login.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"teamchat/internal/apperr"
	"teamchat/internal/chatapp"
	"teamchat/internal/directory"
	"teamchat/internal/ledger"
)

// maxLogoUpload caps the logo endpoint's request body.
const maxLogoUpload = 20 << 20

// Server routes HTTP requests to the coordinator.
type Server struct {
	app *chatapp.App
	log *zap.Logger
}

// NewServer creates the HTTP front end.
func NewServer(app *chatapp.App, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{app: app, log: log}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", s.handleLogin)
	r.Get("/branding", s.handleGetBranding)
	r.Get("/branding/logo", s.handleGetLogo)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
		r.Get("/contacts", s.handleContacts)
		r.Get("/threads/{targetType}/{targetID}", s.handleThread)
		r.Post("/chat/select", s.handleSelectChat)
		r.Post("/messages", s.handleSendMessage)
		r.Post("/messages/file", s.handleSendFile)
		r.Delete("/messages/{messageID}", s.handleDeleteMessage)
		r.Post("/groups", s.handleCreateGroup)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleAddUser)
			r.Delete("/users/{userID}", s.handleDeleteUser)
			r.Get("/groups", s.handleListGroups)
			r.Delete("/groups/{groupID}", s.handleDeleteGroup)
			r.Put("/branding", s.handleUpdateBranding)
			r.Put("/branding/logo", s.handleUpdateLogo)
		})
	})

	return r
}

type loginRequest struct {
	Phone string `json:"phone"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  directory.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	token, user, err := s.app.Login(req.Phone)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Logout(tokenFromContext(r.Context())); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.app.CurrentUser(tokenFromContext(r.Context()))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.app.Contacts(tokenFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if contacts == nil {
		contacts = []chatapp.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(chi.URLParam(r, "targetType"), chi.URLParam(r, "targetID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_target")
		return
	}

	token := tokenFromContext(r.Context())
	if err := s.app.SelectChat(token, target); err != nil {
		s.writeAppError(w, err)
		return
	}
	thread, err := s.app.Thread(token)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if thread == nil {
		thread = []ledger.Message{}
	}
	writeJSON(w, http.StatusOK, thread)
}

type selectChatRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (s *Server) handleSelectChat(w http.ResponseWriter, r *http.Request) {
	var req selectChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	target, ok := parseTarget(req.Type, req.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_target")
		return
	}

	if err := s.app.SelectChat(tokenFromContext(r.Context()), target); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sendMessageRequest struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	target, ok := parseTarget(req.Type, req.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_target")
		return
	}

	m, err := s.app.SendText(tokenFromContext(r.Context()), target, req.Content)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleSendFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file")
		return
	}
	file.Close()

	target, ok := parseTarget(r.FormValue("type"), r.FormValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_target")
		return
	}

	m, err := s.app.SendFile(tokenFromContext(r.Context()), target, header.Filename, header.Size)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_message_id")
		return
	}

	if err := s.app.DeleteMessage(tokenFromContext(r.Context()), id); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	MemberIDs   []string `json:"members"`
	Description string   `json:"description"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	user, err := s.app.CurrentUser(tokenFromContext(r.Context()))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	g, err := s.app.CreateGroup(user.ID, req.Name, req.MemberIDs, req.Description)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Users())
}

type addUserRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	role := directory.RoleMember
	if strings.EqualFold(strings.TrimSpace(req.Role), string(directory.RoleAdmin)) {
		role = directory.RoleAdmin
	}

	u, err := s.app.AddUser(req.Name, req.Phone, role, req.Avatar)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteUser(chi.URLParam(r, "userID")); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Groups())
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteGroup(chi.URLParam(r, "groupID")); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type brandingResponse struct {
	Name    string `json:"name"`
	HasLogo bool   `json:"hasLogo"`
}

func (s *Server) handleGetBranding(w http.ResponseWriter, _ *http.Request) {
	b := s.app.Branding()
	writeJSON(w, http.StatusOK, brandingResponse{Name: b.Name, HasLogo: len(b.Logo) > 0})
}

func (s *Server) handleGetLogo(w http.ResponseWriter, _ *http.Request) {
	logo := s.app.Branding().Logo
	if len(logo) == 0 {
		writeError(w, http.StatusNotFound, "no_logo")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(logo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(logo)
}

type updateBrandingRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleUpdateBranding(w http.ResponseWriter, r *http.Request) {
	var req updateBrandingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := s.app.UpdateCompanyName(req.Name); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpdateLogo(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLogoUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, "body_too_large")
		return
	}

	if err := s.app.UpdateLogo(data); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if _, err := s.app.CurrentUser(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.app.CurrentUser(tokenFromContext(r.Context()))
		if err != nil || user.Role != directory.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenKey struct{}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, apperr.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission_denied")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func parseTarget(targetType, id string) (ledger.Target, bool) {
	t := ledger.Target{Type: ledger.TargetType(targetType), ID: id}
	return t, t.Valid()
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
