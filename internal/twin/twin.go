// Package twin is an in-memory stand-in for the booking API. It follows the
// upstream behaviour closely enough for the scenarios to run offline: token
// exchange on /auth, booking CRUD, cookie or basic auth on mutations, plain
// text bodies for status-only answers.
package twin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"pkt.systems/bookbdd/internal/fixture"
	"pkt.systems/pslog"
)

// Twin serves the booking API from a Store.
type Twin struct {
	Store  *Store
	Router *chi.Mux
	logger pslog.Base
}

// New wires a chi router around store. logger may be nil.
func New(store *Store, logger pslog.Base) *Twin {
	t := &Twin{Store: store, Router: chi.NewRouter(), logger: logger}
	t.Router.Use(chimw.RequestID)
	t.Router.Use(chimw.Recoverer)
	t.Router.Use(t.requestLog)
	t.Routes(t.Router)
	return t
}

// NewDefault returns a twin that accepts the default fixture credentials and
// holds two seeded bookings (ids 1 and 2).
func NewDefault(logger pslog.Base) *Twin {
	return NewSeeded(fixture.Default().Credentials, logger)
}

// NewSeeded is NewDefault accepting creds instead of the default credentials.
func NewSeeded(creds fixture.Credentials, logger pslog.Base) *Twin {
	store := NewStore(creds)
	store.Seed(
		fixture.Booking{
			Firstname: "Sally", Lastname: "Brown", TotalPrice: 111, DepositPaid: true,
			BookingDates:    fixture.BookingDates{Checkin: "2013-02-23", Checkout: "2014-10-23"},
			AdditionalNeeds: "Breakfast",
		},
		fixture.Booking{
			Firstname: "Jim", Lastname: "Jones", TotalPrice: 642, DepositPaid: false,
			BookingDates: fixture.BookingDates{Checkin: "2017-05-11", Checkout: "2018-01-01"},
		},
	)
	return New(store, logger)
}

// ServeHTTP implements http.Handler.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// Routes mounts the booking API routes.
func (t *Twin) Routes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		text(w, http.StatusCreated, "Created")
	})
	r.Post("/auth", t.authenticate)
	r.Route("/booking", func(r chi.Router) {
		r.Get("/", t.list)
		r.Post("/", t.create)
		r.Get("/{id}", t.get)
		r.Put("/{id}", t.authorized(t.replace))
		r.Patch("/{id}", t.authorized(t.patch))
		r.Delete("/{id}", t.authorized(t.remove))
	})
}

func (t *Twin) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		t.logger.Debug("twin request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "dur", time.Since(start).String())
	})
}

func (t *Twin) authenticate(w http.ResponseWriter, r *http.Request) {
	var creds fixture.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || !t.Store.CheckCredentials(creds) {
		writeJSON(w, http.StatusOK, map[string]string{"reason": "Bad credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": t.Store.IssueToken()})
}

func (t *Twin) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ids := t.Store.List(q.Get("firstname"), q.Get("lastname"))
	type ref struct {
		BookingID int `json:"bookingid"`
	}
	out := make([]ref, len(ids))
	for i, id := range ids {
		out[i] = ref{BookingID: id}
	}
	writeJSON(w, http.StatusOK, out)
}

func (t *Twin) get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(r)
	if !ok {
		text(w, http.StatusNotFound, "Not Found")
		return
	}
	b, found := t.Store.Get(id)
	if !found {
		text(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (t *Twin) create(w http.ResponseWriter, r *http.Request) {
	var in bookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		text(w, http.StatusBadRequest, "Bad Request")
		return
	}
	b, ok := in.complete()
	if !ok {
		text(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	id := t.Store.Create(b)
	writeJSON(w, http.StatusOK, struct {
		BookingID int             `json:"bookingid"`
		Booking   fixture.Booking `json:"booking"`
	}{BookingID: id, Booking: b})
}

func (t *Twin) replace(w http.ResponseWriter, r *http.Request, id int) {
	var in bookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		text(w, http.StatusBadRequest, "Bad Request")
		return
	}
	b, ok := in.complete()
	if !ok {
		text(w, http.StatusBadRequest, "Bad Request")
		return
	}
	updated, found := t.Store.Update(id, func(fixture.Booking) fixture.Booking { return b })
	if !found {
		text(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (t *Twin) patch(w http.ResponseWriter, r *http.Request, id int) {
	var in bookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		text(w, http.StatusBadRequest, "Bad Request")
		return
	}
	updated, found := t.Store.Update(id, in.applyTo)
	if !found {
		text(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (t *Twin) remove(w http.ResponseWriter, r *http.Request, id int) {
	if !t.Store.Delete(id) {
		text(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	text(w, http.StatusCreated, "Created")
}

// authorized accepts the token cookie or basic auth with the store's
// credentials, mirroring the upstream API.
func (t *Twin) authorized(next func(http.ResponseWriter, *http.Request, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed := false
		if c, err := r.Cookie("token"); err == nil && t.Store.ValidToken(c.Value) {
			allowed = true
		} else if user, pass, ok := r.BasicAuth(); ok {
			allowed = t.Store.CheckCredentials(fixture.Credentials{Username: user, Password: pass})
		}
		if !allowed {
			text(w, http.StatusForbidden, "Forbidden")
			return
		}
		id, ok := bookingID(r)
		if !ok {
			text(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		next(w, r, id)
	}
}

func bookingID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

type bookingInput struct {
	Firstname       *string               `json:"firstname"`
	Lastname        *string               `json:"lastname"`
	TotalPrice      *int                  `json:"totalprice"`
	DepositPaid     *bool                 `json:"depositpaid"`
	BookingDates    *fixture.BookingDates `json:"bookingdates"`
	AdditionalNeeds *string               `json:"additionalneeds"`
}

func (in bookingInput) complete() (fixture.Booking, bool) {
	if in.Firstname == nil || in.Lastname == nil || in.TotalPrice == nil || in.DepositPaid == nil || in.BookingDates == nil {
		return fixture.Booking{}, false
	}
	return in.applyTo(fixture.Booking{}), true
}

func (in bookingInput) applyTo(b fixture.Booking) fixture.Booking {
	if in.Firstname != nil {
		b.Firstname = *in.Firstname
	}
	if in.Lastname != nil {
		b.Lastname = *in.Lastname
	}
	if in.TotalPrice != nil {
		b.TotalPrice = *in.TotalPrice
	}
	if in.DepositPaid != nil {
		b.DepositPaid = *in.DepositPaid
	}
	if in.BookingDates != nil {
		b.BookingDates = *in.BookingDates
	}
	if in.AdditionalNeeds != nil {
		b.AdditionalNeeds = *in.AdditionalNeeds
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
