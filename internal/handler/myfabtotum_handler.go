package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/Stewz00/myfabtotum-link/internal/logging"
	"github.com/Stewz00/myfabtotum-link/internal/service"
	"github.com/Stewz00/myfabtotum-link/internal/session"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

var backURLTemplate = template.Must(template.ParseFS(templateFS, "templates/back_url.html"))

type MyFabtotumHandler struct {
	linkService *service.AccountLinkService
	log         logging.Logger
}

func NewMyFabtotumHandler(linkService *service.AccountLinkService, log logging.Logger) *MyFabtotumHandler {
	return &MyFabtotumHandler{
		linkService: linkService,
		log:         log,
	}
}

type StatusResponse struct {
	Linked bool   `json:"linked"`
	Fabid  string `json:"fabid"`
}

// Index reports whether the session user is linked
func (h *MyFabtotumHandler) Index(w http.ResponseWriter, r *http.Request) {
	linked, fabid := h.linkService.Status(session.FromContext(r.Context()))
	writeJSON(w, http.StatusOK, StatusResponse{Linked: linked, Fabid: fabid})
}

// Connect handles the FABID connect form. The response body has the same
// shape whether or not the link was saved; failures are only logged.
func (h *MyFabtotumHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendJSONError(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	saveToDB := chi.URLParam(r, "saveToDB")
	if saveToDB == "" {
		saveToDB = r.PostFormValue("saveToDB")
	}

	req := service.ConnectRequest{
		Email:          r.PostFormValue("fabid_email"),
		Password:       r.PostFormValue("fabid_password"),
		Serial:         r.PostFormValue("fabid_serial_number"),
		Persist:        parseFlag(saveToDB, true),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	}

	result, err := h.linkService.Connect(r.Context(), session.FromContext(r.Context()), req)
	if err != nil {
		h.log.Warn(r.Context(), "connect finished with errors", "fabid", req.Email, "persist", req.Persist, "error", err)
	}

	writeJSON(w, http.StatusOK, result)
}

// Disconnect removes a FABID link and always answers true
func (h *MyFabtotumHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	fabid := chi.URLParam(r, "fabid")
	if fabid == "" {
		fabid = r.URL.Query().Get("fabid")
	}

	ok, err := h.linkService.Disconnect(r.Context(), session.FromContext(r.Context()), fabid)
	if err != nil {
		h.log.Warn(r.Context(), "disconnect finished with errors", "fabid", fabid, "error", err)
	}

	writeJSON(w, http.StatusOK, ok)
}

// BackURL is the landing page my.fabtotum.com redirects the login popup to
func (h *MyFabtotumHandler) BackURL(w http.ResponseWriter, r *http.Request) {
	fabid := r.URL.Query().Get("fabid")

	if err := h.linkService.HandleCallback(r.Context(), session.FromContext(r.Context()), fabid); err != nil {
		h.log.Warn(r.Context(), "callback finished with errors", "fabid", fabid, "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := backURLTemplate.Execute(w, struct{ Fabid string }{Fabid: fabid}); err != nil {
		h.log.Error(r.Context(), "rendering back_url failed", "error", err)
	}
}

// parseFlag reads a boolean request flag. Empty values yield def.
func parseFlag(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
