package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"multiworld/pkg/log"
	"multiworld/pkg/messages"

	"github.com/gorilla/websocket"
)

// WSServer represents the WebSocket server clients connect to.
type WSServer struct {
	port    int
	tls     *TLSConfig
	hub     *Hub
	handler *CoordinationHandler
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewWSServerOptions struct {
	Port    int
	TLS     *TLSConfig
	Hub     *Hub
	Handler *CoordinationHandler
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:    opts.Port,
		tls:     opts.TLS,
		hub:     opts.Hub,
		handler: opts.Handler,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  messages.MessageBufferSize,
	WriteBufferSize: messages.MessageBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler returns the HTTP handler serving the WebSocket endpoint and
// the health check.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())
		go s.handleWSConnection(conn)
	})
	return mux
}

// Start starts the WebSocket server and blocks until ctx is cancelled.
func (s *WSServer) Start(ctx context.Context) {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection runs the read loop for a single connection.
func (s *WSServer) handleWSConnection(conn *websocket.Conn) {
	c := s.hub.register(conn)
	defer func() {
		s.hub.unregister(c.id)
		s.handler.HandleDisconnect(c.id)
		conn.Close()
	}()

	for {
		msg := &messages.Message{}
		if err := conn.ReadJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", conn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", conn.RemoteAddr().String())
			return
		}
		s.handler.HandleMessage(c.id, msg)
	}
}
