//go:build !tinygo

package ghost

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// webSocket wraps a websocket.Conn and implements the Socketer interface
type webSocket struct {
	socket
	sync.Mutex
	url          *url.URL
	conn         *websocket.Conn
	out          *outbox
	closing      bool
	pingPeriod   time.Duration
	pingSent     time.Time
	pongReceived bool
}

const pingPeriodMin = time.Second

// Bound on a single frame write; a peer that stops reading is dropped
var wsWriteTimeout = 5 * time.Second

var errNoConn = errors.New("send on nil connection")

func newWebSocket(url *url.URL, remoteAddr string, bus *Bus) *webSocket {
	w := &webSocket{}

	var name string
	if remoteAddr == "" {
		name = "ws:localhost::" + url.String()
	} else {
		name = "ws:" + url.String() + "::" + remoteAddr
	}

	w.socket = socket{name, SocketFlagBcast, bus}
	w.url = url

	/* param ping-period */
	period, _ := strconv.Atoi(url.Query().Get("ping-period"))
	w.pingPeriod = time.Duration(period) * time.Second
	if w.pingPeriod < pingPeriodMin {
		w.pingPeriod = pingPeriodMin
	}

	return w
}

func (w *webSocket) Close() {
	w.Lock()
	defer w.Unlock()
	w.closing = true
}

// isClosing is true once Close is called or the writer has given up on
// the connection
func (w *webSocket) isClosing() bool {
	w.Lock()
	defer w.Unlock()
	return w.closing || (w.out != nil && w.out.closed())
}

// Send queues the packet for the connection's writer.  Send never blocks
// on the network; errOutboxFull means the packet was dropped.
func (w *webSocket) Send(pkt *Packet) error {
	logger.Debugf("Sending %s: %s", w, pkt)
	return w.sendRaw(pkt.message)
}

func (w *webSocket) sendRaw(msg []byte) error {
	w.Lock()
	defer w.Unlock()
	if w.out == nil {
		return errNoConn
	}
	return w.out.push(msg)
}

func (w *webSocket) write(conn *websocket.Conn, msg []byte) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := websocket.Message.Send(conn, string(msg)); err != nil {
		logger.Warnf("Write to %s failed: %s", w, err)
		return err
	}
	return nil
}

func (w *webSocket) newConfig(user, passwd string) (*websocket.Config, error) {
	url := w.url.String()
	origin := "http://localhost/"

	config, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, err
	}

	if user != "" {
		// Set the basic auth header for the request
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(user, passwd)
		config.Header = req.Header
	}

	return config, nil
}

func (w *webSocket) announced(announce *Packet) bool {

	var pkt = &Packet{bus: w.bus, src: w}

	if err := w.Send(announce); err != nil {
		logger.Warnf("Error sending announcement: %s", err)
		return false
	}

	// Any packet received is an ack of the announcement
	w.conn.SetReadDeadline(time.Now().Add(time.Second))
	err := websocket.Message.Receive(w.conn, &pkt.message)
	if err == nil {
		w.bus.receive(pkt)
		return true
	}

	return false
}

// Dial connects to an upstream websocket, announces, and serves the
// connection.  Dial retries every second and never returns.
func (w *webSocket) Dial(user, passwd string, announce *Packet) {

	cfg, err := w.newConfig(user, passwd)
	if err != nil {
		logger.Errorf("Error configuring websocket: %s", err)
		return
	}

	for {
		conn, err := websocket.DialConfig(cfg)
		if err == nil {
			w.connect(conn)
			if w.announced(announce) {
				// Serve websocket until EOF or error
				w.serveClient()
			}
			w.disconnect()
			conn.Close()
		} else {
			logger.Debugf("Dial error %s: %s", w, err)
		}

		// try again in a second
		time.Sleep(time.Second)
	}
}

// Dial an upstream websocket (a hub), announcing the thing on connect.
// Dial returns immediately; the connection is kept up in the background.
func (r *Runner) Dial(user, passwd, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	ws := newWebSocket(u, "", r.bus)
	go ws.Dial(user, passwd, r.thinger.Announce())
	return nil
}

func (w *webSocket) connect(conn *websocket.Conn) {
	logger.Infof("Connecting %s", w)
	w.Lock()
	w.conn = conn
	w.out = newOutbox(outboxSize, func(msg []byte) error {
		return w.write(conn, msg)
	})
	w.Unlock()
	w.bus.Plugin(w)
}

func (w *webSocket) disconnect() {
	logger.Infof("Disconnecting %s", w)
	w.bus.Unplug(w)
	w.Lock()
	w.out.close()
	w.out = nil
	w.conn = nil
	w.Unlock()
}

var pingMsg = []byte("ping")
var pongMsg = []byte("pong")

func (w *webSocket) serve(conn *websocket.Conn) {
	w.connect(conn)
	w.serveServer()
	w.disconnect()
}

func (w *webSocket) ping() {
	w.pongReceived = false
	w.pingSent = time.Now()
	if err := w.sendRaw(pingMsg); err != nil {
		logger.Debugf("Ping %s: %s", w, err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (w *webSocket) serveClient() {

	w.ping()

	for {
		var pkt = &Packet{bus: w.bus, src: w}

		if w.isClosing() {
			logger.Infof("Closing %s", w)
			break
		}

		w.conn.SetReadDeadline(time.Now().Add(time.Second))
		err := websocket.Message.Receive(w.conn, &pkt.message)
		if err == nil {
			if bytes.Equal(pkt.message, pongMsg) {
				w.pongReceived = true
			} else {
				w.bus.receive(pkt)
			}
		} else if isTimeout(err) {
			// allow timeout errors
		} else {
			logger.Infof("Disconnecting %s: %s", w, err)
			break
		}

		if time.Now().After(w.pingSent.Add(w.pingPeriod)) {
			if !w.pongReceived {
				logger.Warnf("No pong; disconnecting %s", w)
				break
			}
			w.ping()
		}
	}
}

func (w *webSocket) serveServer() {

	pingCheck := w.pingPeriod + (4 * time.Second)
	lastRecv := time.Now()

	for {
		var pkt = &Packet{bus: w.bus, src: w}

		if w.isClosing() {
			logger.Infof("Closing %s", w)
			break
		}

		w.conn.SetReadDeadline(time.Now().Add(time.Second))
		err := websocket.Message.Receive(w.conn, &pkt.message)
		if err == nil {
			lastRecv = time.Now()
			if bytes.Equal(pkt.message, pingMsg) {
				if err := w.sendRaw(pongMsg); err != nil {
					logger.Warnf("Error sending pong, disconnecting %s: %s", w, err)
					break
				}
			} else {
				w.bus.receive(pkt)
			}
			continue
		}

		if isTimeout(err) {
			if time.Now().After(lastRecv.Add(pingCheck)) {
				logger.Warnf("Timeout, disconnecting %s %s", w,
					time.Since(lastRecv).String())
				break
			}
			continue
		}

		logger.Infof("Disconnecting %s: %s", w, err)
		break
	}
}
