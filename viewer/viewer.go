// Package viewer streams simulation snapshots to display clients over a
// websocket, one msgpack encoded frame per refresh.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akmonengine/tabletop/sim"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	FrameScene = "scene"
	FrameState = "state"

	writeWait  = 10 * time.Second
	pingPeriod = 20 * time.Second
	readWait   = 60 * time.Second
)

type Config struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
	// SendBuffer is the number of frames queued per client before frames
	// are dropped for it.
	SendBuffer int `yaml:"send_buffer" json:"send_buffer"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Addr:       "127.0.0.1:8090",
		Path:       "/ws",
		SendBuffer: 16,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errors.New("viewer addr is empty")
	}
	if c.Path == "" || c.Path[0] != '/' {
		return fmt.Errorf("viewer path must start with /, got %q", c.Path)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("viewer send_buffer must be at least 1, got %d", c.SendBuffer)
	}
	return nil
}

// Frame is the message sent to clients. Scene frames describe the shapes,
// state frames only the poses.
type Frame struct {
	Kind     string       `msgpack:"k"`
	Snapshot sim.Snapshot `msgpack:"s"`
}

func Encode(snapshot sim.Snapshot) ([]byte, error) {
	frame := Frame{Kind: FrameState, Snapshot: snapshot}
	if hasShapes(snapshot) {
		frame.Kind = FrameScene
	}
	return msgpack.Marshal(&frame)
}

func Decode(data []byte) (Frame, error) {
	var frame Frame
	err := msgpack.Unmarshal(data, &frame)
	return frame, err
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Server is a sim display: Show broadcasts a snapshot to every connected
// client. Show is called from the simulation loop; connections are served
// on their own goroutines and only ever see encoded frames.
type Server struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uuid.UUID]*client

	// set when a client joined since the last scene frame
	wantsShapes atomic.Bool
}

func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[uuid.UUID]*client),
	}
}

// Handler serves the websocket on the configured path and a health check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe serves until ctx is done, then closes every connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Info("viewer listening", zap.String("addr", s.cfg.Addr), zap.String("path", s.cfg.Path))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return err
	}
	if err = <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, max(1, s.cfg.SendBuffer)),
	}
	s.register(c)
	s.log.Info("viewer connected", zap.Stringer("client", c.id), zap.String("remote", r.RemoteAddr))

	go s.writePump(c)
	s.readPump(c)
}

// readPump only watches for the connection to close; clients send nothing.
func (s *Server) readPump(c *client) {
	defer func() {
		s.unregister(c.id)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("viewer read failed", zap.Stringer("client", c.id), zap.Error(err))
			}
			s.log.Info("viewer disconnected", zap.Stringer("client", c.id))
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	s.wantsShapes.Store(true)
}

func (s *Server) unregister(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		close(c.send)
		delete(s.clients, id)
	}
}

// Show encodes the snapshot once and queues it for every client. A client
// whose queue is full misses the frame.
func (s *Server) Show(snapshot sim.Snapshot) error {
	frame, err := Encode(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.clients) == 0 {
		return nil
	}
	for _, c := range s.clients {
		select {
		case c.send <- frame:
		default:
			s.log.Debug("viewer frame dropped", zap.Stringer("client", c.id), zap.Uint64("step", snapshot.Step))
		}
	}

	if hasShapes(snapshot) {
		s.wantsShapes.Store(false)
	}
	return nil
}

func hasShapes(snapshot sim.Snapshot) bool {
	for _, o := range snapshot.Objects {
		if len(o.Shapes) > 0 {
			return true
		}
	}
	return false
}

// WantsShapes is true until a scene frame reached the clients connected
// so far.
func (s *Server) WantsShapes() bool {
	return s.wantsShapes.Load()
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		close(c.send)
		delete(s.clients, id)
	}
}
