package guard

import (
	"context"
	"net/http"
	"sync"

	goAttend "github.com/MrEthical07/goAttend"
)

// Destination is the screen a session state maps to.
type Destination int

const (
	// Splash is shown until the session has been restored.
	Splash Destination = iota
	// Login is shown for an initialized, unauthenticated session.
	Login
	// Home is shown for an authenticated session.
	Home
)

func (d Destination) String() string {
	switch d {
	case Login:
		return "login"
	case Home:
		return "home"
	default:
		return "splash"
	}
}

// Decide maps a session snapshot to a destination. An authenticated session
// goes home even if Restore has not run yet.
func Decide(s goAttend.State) Destination {
	switch {
	case s.Authenticated:
		return Home
	case !s.Initialized:
		return Splash
	default:
		return Login
	}
}

// Watch calls fn with the destination for every state change that moves
// the session to a different screen. The returned function stops watching.
func Watch(m *goAttend.Manager, fn func(Destination)) (stop func()) {
	if m == nil || fn == nil {
		return func() {}
	}

	var mu sync.Mutex
	last := Decide(m.State())
	sub := m.Subscribe(func(s goAttend.State) {
		d := Decide(s)
		mu.Lock()
		changed := d != last
		last = d
		mu.Unlock()
		if changed {
			fn(d)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() { m.Unsubscribe(sub) })
	}
}

type stateContextKey struct{}

// StateFromContext returns the snapshot stored by Require.
func StateFromContext(ctx context.Context) (goAttend.State, bool) {
	s, ok := ctx.Value(stateContextKey{}).(goAttend.State)
	return s, ok
}

// Require answers 401 unless m holds an authenticated session. The snapshot
// seen by the guard is available to next through StateFromContext.
func Require(m *goAttend.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			s := m.State()
			if Decide(s) != Home {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
