package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func tagMiddleware(tag string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, tag)
			next.ServeHTTP(w, r)
		})
	}
}

type staticHandler struct{ routes []string }

func (s staticHandler) Routes() []string { return s.routes }
func (s staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("static"))
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware runs in registration order", func(t *testing.T) {
		var order []string
		r := NewBasicRouter()
		r.Use(tagMiddleware("first", &order), tagMiddleware("second", &order))
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Handler registers every route", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(staticHandler{routes: []string{"/a", "/b"}})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "static" {
				t.Errorf("%s: expected static body, got %q", path, rec.Body.String())
			}
		}
	})

	t.Run("Recoverer turns panics into 500", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recoverer)
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}
