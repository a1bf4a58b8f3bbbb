package novadbwire

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tuannm99/novadb"
)

// Server shares one database across every connection. Statements from all
// sessions are serialised by mu, since the engine itself takes no locks.
type Server struct {
	db  *novadb.Database
	mu  sync.Mutex
	log *slog.Logger

	wg sync.WaitGroup
}

func NewServer(db *novadb.Database, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{db: db, log: log}
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then waits for open
// sessions to finish their current statement.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()
	s.log.Info("novadbwire: listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return err
			}
			s.log.Warn("novadbwire: accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Debug("novadbwire: session opened")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	for {
		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			log.Debug("novadbwire: session closed", "err", err)
			return
		}

		resp := s.execute(ctx, req)
		if err := WriteFrame(conn, resp); err != nil {
			log.Warn("novadbwire: write response failed", "id", req.ID, "err", err)
			return
		}
	}
}

func (s *Server) execute(ctx context.Context, req ExecuteRequest) ExecuteResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecuteContext(ctx, req.SQL)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return ExecuteResponse{ID: req.ID, Result: res}
}
