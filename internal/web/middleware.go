package web

import (
	"mime"
	"net/http"
	"strings"
)

// methodParam is the form field HTML forms use to tunnel PATCH, PUT and
// DELETE through POST.
const methodParam = "_method"

// methodOverride rewrites POST form submissions that carry a _method field.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && isForm(r) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			switch m := strings.ToUpper(r.PostForm.Get(methodParam)); m {
			case http.MethodPatch, http.MethodPut, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}
