package web

import (
	"net/http"
	"net/url"
)

const flashCookie = "qa_flash"

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Notice string
	Alert  string
}

// Empty reports whether there is nothing to show.
func (f Flash) Empty() bool {
	return f.Notice == "" && f.Alert == ""
}

// setFlash stores f for the next request.
func setFlash(w http.ResponseWriter, f Flash) {
	if f.Empty() {
		return
	}
	v := url.Values{}
	if f.Notice != "" {
		v.Set("notice", f.Notice)
	}
	if f.Alert != "" {
		v.Set("alert", f.Alert)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    v.Encode(),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return Flash{}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	v, err := url.ParseQuery(c.Value)
	if err != nil {
		return Flash{}
	}
	return Flash{Notice: v.Get("notice"), Alert: v.Get("alert")}
}
