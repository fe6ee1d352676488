// Package server provides the Remora evaluation server: a REST API over
// user accounts and persistent interpreter sessions that remote clients
// submit rem source to.
//
//	POST   /login                  - accepts username/password and returns a jwt.
//	DELETE /login                  - invalidates all outstanding jwts for the user.
//	POST   /users                  - create a new account (auth not required).
//	POST   /sessions               - create a new interpreter session (auth required).
//	GET    /sessions               - list the caller's sessions (auth required).
//	GET    /sessions/{id}          - get info on a session (auth required, owner only).
//	POST   /sessions/{id}/eval     - evaluate rem source in the session (auth required, owner only).
//	GET    /sessions/{id}/commands - get the session's evaluation history (auth required, owner only).
//	GET    /info                   - get version info on the server itself.
package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/dao/inmem"
	"github.com/dekarrin/remora/server/dao/sqlite"
	"github.com/dekarrin/remora/server/middle"
	"github.com/go-chi/chi/v5"
)

// RemoraServer is an HTTP REST server that manages user accounts and
// evaluation sessions. Create one with New and start it with ServeForever.
type RemoraServer struct {
	router chi.Router

	svc       *Service
	jwtSecret []byte
}

// New creates a RemoraServer. If dbPath is empty the server runs on an
// in-memory store; otherwise it opens (creating if needed) a SQLite database
// in that directory.
func New(tokenSecret []byte, dbPath string) (*RemoraServer, error) {
	var db dao.Store
	var err error

	if dbPath == "" {
		db = inmem.NewDatastore()
	} else {
		db, err = sqlite.NewDatastore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open datastore: %w", err)
		}
	}

	rs := &RemoraServer{
		svc:       NewService(db),
		jwtSecret: tokenSecret,
	}
	rs.initRouter()

	return rs, nil
}

func (rs *RemoraServer) initRouter() {
	unauthedDelay := time.Second

	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	requireAuth := middle.RequireAuth(rs.svc.DB.Users(), rs.jwtSecret, unauthedDelay)

	r.Post("/login", Endpoint(rs.epLogin))
	r.With(requireAuth).Delete("/login", Endpoint(rs.epLogout))
	r.Post("/users", Endpoint(rs.epCreateUser))
	r.Get("/info", Endpoint(rs.epInfo))

	r.Route("/sessions", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", Endpoint(rs.epCreateSession))
		r.Get("/", Endpoint(rs.epListSessions))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", Endpoint(rs.epGetSession))
			r.Post("/eval", Endpoint(rs.epEval))
			r.Get("/commands", Endpoint(rs.epSessionCommands))
		})
	})

	rs.router = r
}

// ServeForever begins listening on the given address and port. If address is
// kept as "", it will default to "localhost". If port is less than 1, it
// will default to 8080. This function will block until the server is
// stopped.
func (rs *RemoraServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, rs.router))
}

// ServeHTTP lets the server be mounted directly, which the tests use in
// place of a real listener.
func (rs *RemoraServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rs.router.ServeHTTP(w, req)
}

// Service exposes the underlying service layer, mainly so runners can
// pre-create accounts.
func (rs *RemoraServer) Service() *Service {
	return rs.svc
}
