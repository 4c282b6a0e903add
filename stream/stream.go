// Package stream broadcasts particle positions to websocket clients.
//
// A client connecting to /ws first receives a JSON hello message, then one
// binary message per published frame:
//
//	uint32 frame | uint32 count | count × (float32 x, float32 y)
//
// All integers and floats are little-endian.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/mpm/mpm"
)

const (
	headerSize = 8
	pointSize  = 8

	writeTimeout = 2 * time.Second
)

// Hello is the first message sent to every client.
type Hello struct {
	Type      string `json:"type"`
	GridRes   int    `json:"grid_res"`
	Particles int    `json:"particles"`
}

// Server accepts websocket clients and fans frames out to them. A nil
// *Server is a valid disabled server.
type Server struct {
	gridRes     int
	minInterval time.Duration

	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	particles atomic.Int64
	lastSent  time.Time
	buf       []byte
}

// NewServer creates a server for a grid of gridRes cells publishing at most
// fps frames per second. It does not listen; see ListenAndServe or Handler.
func NewServer(gridRes, fps int) *Server {
	if fps < 1 {
		fps = 30
	}
	s := &Server{
		gridRes:     gridRes,
		minInterval: time.Second / time.Duration(fps),
		clients:     make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	return s
}

// Start listens on addr and serves in the background. An empty addr
// disables streaming and returns a nil server.
func Start(addr string, gridRes, fps int) (*Server, error) {
	if addr == "" {
		return nil, nil
	}
	s := NewServer(gridRes, fps)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stream server stopped", "error", err)
		}
	}()
	slog.Info("streaming frames", "addr", ln.Addr().String(), "fps", fps)
	return s, nil
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Addr returns the listening address, or "" if the server is not listening.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	if s == nil {
		return 0
	}
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	hello := Hello{Type: "hello", GridRes: s.gridRes, Particles: int(s.particles.Load())}
	connMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteJSON(hello)
	connMu.Unlock()
	if err != nil {
		return
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish broadcasts the positions in ps as frame. Frames arriving faster
// than the configured rate are dropped. Reports whether the frame was sent.
func (s *Server) Publish(frame int32, ps []mpm.Particle) bool {
	if s == nil {
		return false
	}
	s.particles.Store(int64(len(ps)))

	now := time.Now()
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.minInterval {
		return false
	}
	if s.Clients() == 0 {
		return false
	}
	s.lastSent = now

	s.buf = EncodeFrame(s.buf, uint32(frame), ps)
	s.broadcast(s.buf)
	return true
}

func (s *Server) broadcast(msg []byte) {
	var failed []*websocket.Conn

	s.clientsMu.RLock()
	for client, mu := range s.clients {
		mu.Lock()
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := client.WriteMessage(websocket.BinaryMessage, msg)
		mu.Unlock()
		if err != nil {
			slog.Warn("websocket write failed", "error", err)
			failed = append(failed, client)
		}
	}
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, client := range failed {
			client.Close()
			delete(s.clients, client)
		}
		s.clientsMu.Unlock()
	}
}

// Close disconnects all clients and stops listening.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	if s.http != nil {
		return s.http.Close()
	}
	return nil
}

// EncodeFrame appends the binary frame message to dst[:0].
func EncodeFrame(dst []byte, frame uint32, ps []mpm.Particle) []byte {
	n := headerSize + pointSize*len(ps)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	binary.LittleEndian.PutUint32(dst[0:], frame)
	binary.LittleEndian.PutUint32(dst[4:], uint32(len(ps)))
	off := headerSize
	for i := range ps {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(ps[i].Pos.X))
		binary.LittleEndian.PutUint32(dst[off+4:], math.Float32bits(ps[i].Pos.Y))
		off += pointSize
	}
	return dst
}

// DecodeFrame parses a binary frame message into positions, reusing dst.
func DecodeFrame(msg []byte, dst []mpm.Vec2) (frame uint32, pos []mpm.Vec2, err error) {
	if len(msg) < headerSize {
		return 0, nil, fmt.Errorf("frame too short: %d bytes", len(msg))
	}
	frame = binary.LittleEndian.Uint32(msg[0:])
	count := int(binary.LittleEndian.Uint32(msg[4:]))
	if len(msg) != headerSize+pointSize*count {
		return 0, nil, fmt.Errorf("frame of %d points has %d bytes", count, len(msg))
	}
	pos = dst[:0]
	for off := headerSize; off < len(msg); off += pointSize {
		pos = append(pos, mpm.Vec2{
			X: math.Float32frombits(binary.LittleEndian.Uint32(msg[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(msg[off+4:])),
		})
	}
	return frame, pos, nil
}
