package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"notehub/views/models"
)

const (
	flashCookie  = "notehub_flash"
	toastSuccess = "success"
	toastError   = "error"
)

// setFlash stores a toast shown on the next full page render.
func setFlash(w http.ResponseWriter, t models.Toast) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(t.Kind + ":" + t.Message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the pending toast.
func takeFlash(w http.ResponseWriter, r *http.Request) *models.Toast {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, ":")
	if !ok || msg == "" || (kind != toastSuccess && kind != toastError) {
		return nil
	}
	return &models.Toast{Kind: kind, Message: msg}
}

// triggerToast asks the HTMX client to show t immediately.
func triggerToast(w http.ResponseWriter, t models.Toast) {
	b, err := json.Marshal(map[string]models.Toast{"toast": t})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}
