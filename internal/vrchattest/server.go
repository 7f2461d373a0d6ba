// Package vrchattest runs an in-process fake of the upstream REST API for
// tests. Fixtures are raw JSON strings so the fake stays independent of the
// client's own types.
package vrchattest

import (
	"crypto/subtle"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultAPIKey is the key served by /config unless overridden.
	DefaultAPIKey = "test-api-key"
	// Username and Password are the credentials the fake accepts.
	Username = "tester"
	Password = "hunter2"
)

// Recorded captures one request the fake served.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a fake upstream. Routes are named after the operation they
// serve: config, user, currentUser, friends, world, instance, notify,
// friendRequest, notifications, accept, hide, see.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	apiKey        string
	users         map[string]string
	currentUser   string
	friends       string
	worlds        map[string]string
	instances     map[string]string
	notifications string
	overrides     map[string]override
	hits          map[string]int
	requests      map[string][]Recorded
	configGate    chan struct{}
}

type override struct {
	status int
	body   string
}

// New starts a fake upstream that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		apiKey:        DefaultAPIKey,
		users:         make(map[string]string),
		worlds:        make(map[string]string),
		instances:     make(map[string]string),
		overrides:     make(map[string]override),
		hits:          make(map[string]int),
		requests:      make(map[string][]Recorded),
		currentUser:   `{"id":"usr_me","username":"me","displayName":"Me"}`,
		friends:       `[]`,
		notifications: `[]`,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to the client.
func (s *Server) BaseURL() string {
	return s.URL + "/api/1"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/1", func(r chi.Router) {
		r.Get("/config", s.handle("config", false, s.serveConfig))
		r.Get("/users/{name}/name", s.handle("user", true, func(r *http.Request) (int, string) {
			return s.lookup(s.users, param(r, "name"))
		}))
		r.Get("/auth/user", s.handle("currentUser", true, func(*http.Request) (int, string) {
			return http.StatusOK, s.currentUser
		}))
		r.Get("/auth/user/friends", s.handle("friends", true, func(*http.Request) (int, string) {
			return http.StatusOK, s.friends
		}))
		r.Get("/auth/user/notifications", s.handle("notifications", true, func(*http.Request) (int, string) {
			return http.StatusOK, s.notifications
		}))
		r.Put("/auth/user/notifications/{id}/accept", s.handle("accept", true, s.echoNotification))
		r.Put("/auth/user/notifications/{id}/hide", s.handle("hide", true, s.echoNotification))
		r.Put("/auth/user/notifications/{id}/see", s.handle("see", true, func(r *http.Request) (int, string) {
			return http.StatusOK, `{"id":"` + param(r, "id") + `","type":"friendrequest","seen":true,"created_at":"2024-05-01T10:00:00.000Z"}`
		}))
		r.Get("/worlds/{world}", s.handle("world", true, func(r *http.Request) (int, string) {
			return s.lookup(s.worlds, param(r, "world"))
		}))
		r.Get("/worlds/{world}/{instance}", s.handle("instance", true, func(r *http.Request) (int, string) {
			return s.lookup(s.instances, param(r, "world")+":"+param(r, "instance"))
		}))
		r.Post("/user/{id}/notification", s.handle("notify", true, func(*http.Request) (int, string) {
			return http.StatusOK, `{"success":true}`
		}))
		r.Post("/user/{id}/friendRequest", s.handle("friendRequest", true, func(*http.Request) (int, string) {
			return http.StatusOK, `{"success":true}`
		}))
	})
	return r
}

// handle records the request, enforces Basic auth and, when needsKey is set,
// the apiKey query parameter, then serves the route or its override.
func (s *Server) handle(route string, needsKey bool, serve func(*http.Request) (int, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.hits[route]++
		s.requests[route] = append(s.requests[route], Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		ov, overridden := s.overrides[route]
		apiKey := s.apiKey
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user+":"+pass), []byte(Username+":"+Password)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"Invalid Username or Password","status_code":401}}`)
			return
		}
		if needsKey && r.URL.Query().Get("apiKey") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"Missing Credentials","status_code":401}}`)
			return
		}

		status, payload := 0, ""
		if overridden {
			status, payload = ov.status, ov.body
		} else {
			s.mu.Lock()
			status, payload = serve(r)
			s.mu.Unlock()
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}
}

func (s *Server) serveConfig(*http.Request) (int, string) {
	gate := s.configGate
	if gate != nil {
		s.mu.Unlock()
		<-gate
		s.mu.Lock()
	}
	return http.StatusOK, `{"clientApiKey":"` + s.apiKey + `","appName":"VrChat"}`
}

func (s *Server) echoNotification(r *http.Request) (int, string) {
	return http.StatusOK, `{"id":"` + param(r, "id") + `"}`
}

// param returns the unescaped value of a route parameter.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) lookup(fixtures map[string]string, key string) (int, string) {
	body, ok := fixtures[key]
	if !ok {
		return http.StatusNotFound, `{"error":{"message":"Not found","status_code":404}}`
	}
	return http.StatusOK, body
}

// SetAPIKey changes the key served by /config and required on other routes.
func (s *Server) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// SetUser serves body for a lookup of name.
func (s *Server) SetUser(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = body
}

// SetCurrentUser serves body for the authenticated user.
func (s *Server) SetCurrentUser(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = body
}

// SetFriends serves body for the friends list.
func (s *Server) SetFriends(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = body
}

// SetWorld serves body for world id.
func (s *Server) SetWorld(id, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[id] = body
}

// SetInstance serves body for world:instance.
func (s *Server) SetInstance(world, instance, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[world+":"+instance] = body
}

// SetNotifications serves body for the notification list.
func (s *Server) SetNotifications(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = body
}

// Override makes route answer with status and body until cleared with
// ClearOverride.
func (s *Server) Override(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[route] = override{status: status, body: body}
}

// ClearOverride restores the normal handler of route.
func (s *Server) ClearOverride(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, route)
}

// HoldConfig blocks /config responses until the returned release func is
// called. Hits are still counted while blocked.
func (s *Server) HoldConfig() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.configGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.configGate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits reports how many requests route has received.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Requests returns the requests route has received, oldest first.
func (s *Server) Requests(route string) []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests[route]))
	copy(out, s.requests[route])
	return out
}
