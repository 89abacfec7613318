//go:build !tinygo

package ghost

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Server serves a runner's bus over http.  Websocket clients on /ws/ are
// plugged into the bus; /state returns the thing's state as JSON.
type Server struct {
	http.Server
	runner *Runner
	user   string
	passwd string
}

func NewServer(runner *Runner, addr string) *Server {
	s := &Server{runner: runner}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", s.basicAuth(s.serveWebSocket))
	mux.HandleFunc("/state", s.basicAuth(s.serveState))
	s.Addr = addr
	s.Handler = mux
	s.ReadHeaderTimeout = 10 * time.Second
	return s
}

// BasicAuth protects every endpoint with user/passwd.  An empty user turns
// authentication off.
func (s *Server) BasicAuth(user, passwd string) {
	s.user, s.passwd = user, passwd
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ws := newWebSocket(r.URL, r.RemoteAddr, s.runner.bus)
	serv := websocket.Server{Handler: websocket.Handler(ws.serve)}
	serv.ServeHTTP(w, r)
}

// stateSocket captures the reply to a get/state packet
type stateSocket struct {
	socket
	mu    sync.Mutex
	reply []byte
}

func (ss *stateSocket) Send(pkt *Packet) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.reply = pkt.message
	return nil
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	ss := &stateSocket{socket: socket{name: "state:" + r.RemoteAddr, bus: s.runner.bus}}

	var pkt = Packet{bus: s.runner.bus, src: ss}
	s.runner.bus.receive(pkt.Marshal(&ThingMsg{"get/state"}))

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.reply == nil {
		http.Error(w, "no state", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(ss.reply)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {

		// skip basic authentication if no user
		if s.user == "" {
			next.ServeHTTP(writer, r)
			return
		}

		ruser, rpasswd, ok := r.BasicAuth()

		if ok {
			userHash := sha256.Sum256([]byte(s.user))
			passHash := sha256.Sum256([]byte(s.passwd))
			ruserHash := sha256.Sum256([]byte(ruser))
			rpassHash := sha256.Sum256([]byte(rpasswd))

			// https://www.alexedwards.net/blog/basic-authentication-in-go
			userMatch := (subtle.ConstantTimeCompare(userHash[:], ruserHash[:]) == 1)
			passMatch := (subtle.ConstantTimeCompare(passHash[:], rpassHash[:]) == 1)

			if userMatch && passMatch {
				next.ServeHTTP(writer, r)
				return
			}
		}

		writer.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		http.Error(writer, "Unauthorized", http.StatusUnauthorized)
	})
}
