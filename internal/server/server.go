// Package server orchestrates all components: NATS client, optional DB,
// host session, subscriptions, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/host-interop/internal/config"
	"github.com/morezero/host-interop/pkg/bootstrap"
	"github.com/morezero/host-interop/pkg/bridge"
	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/component"
	"github.com/morezero/host-interop/pkg/db"
	"github.com/morezero/host-interop/pkg/objref"
	"github.com/morezero/host-interop/pkg/session"
)

const logPrefix = "server:server"

// UISelectionChanged is the UI event name the server announces to the host.
const UISelectionChanged = "selection.changed"

// SelectionChanged is the payload the UI publishes when its selection changes.
type SelectionChanged struct {
	Objects []objref.ModelObject `json:"objects"`
}

// Server is the host-interop orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	subjects   commsutil.Subjects
	session    *session.HostSession
	subs       []*comms.Subscription
	httpServer *http.Server
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting host-interop", logPrefix))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	s, err := New(ctx, cfg, nc)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Serve(ctx)
}

// SetupLogging installs the default slog text handler at level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// New builds the session on nc, subscribes to the interop subjects and runs
// the host handshake. The server owns nc and closes it on error.
func New(ctx context.Context, cfg *config.Config, nc *comms.Conn) (*Server, error) {
	s := &Server{cfg: cfg, nc: nc, subjects: commsutil.NewSubjects(cfg.SubjectPrefix)}

	// Step 1: Load bootstrap config
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}
	resolved := bootstrap.CreateResolvedBootstrap(bootstrapCfg)

	// Step 2: Component table source
	src, err := s.componentSource(ctx, resolved)
	if err != nil {
		s.Close()
		return nil, err
	}

	// Step 3: Host session
	s.session = session.New(session.Options{
		Bootstrap:       resolved,
		Channel:         bridge.NewNatsChannel(nc, cfg.HostCallTimeout),
		Subjects:        s.subjects,
		CallTimeout:     cfg.HostCallTimeout,
		EchoWindow:      cfg.EchoWindow,
		FuzzyHostType:   cfg.FuzzyEchoHostType,
		HostType:        cfg.HostType,
		ComponentSource: src,
	})

	// Step 4: Subscribe before the handshake so the host can call back immediately
	if err := s.subscribe(ctx); err != nil {
		s.Close()
		return nil, err
	}

	// Step 5: Handshake
	if _, err := s.session.Handshake(ctx, cfg.HandshakeTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s - handshake failed: %w", logPrefix, err)
	}
	return s, nil
}

func (s *Server) componentSource(ctx context.Context, resolved *bootstrap.ResolvedBootstrap) (component.Source, error) {
	if s.cfg.ComponentTableFile != "" {
		slog.Info(fmt.Sprintf("%s - Component table from %s", logPrefix, s.cfg.ComponentTableFile))
		return component.FileSource{Path: s.cfg.ComponentTableFile}, nil
	}
	if s.cfg.DatabaseURL == "" {
		slog.Info(fmt.Sprintf("%s - Component table from bootstrap (%d entries)", logPrefix, len(resolved.Components())))
		return nil, nil
	}

	pool, err := db.NewPool(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	if s.cfg.RunMigrations {
		migrations, err := db.LoadMigrations(s.cfg.MigrationPath)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if _, err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if _, err := db.SeedComponents(ctx, pool, resolved.Components()); err != nil {
			return nil, fmt.Errorf("%s - failed to seed bootstrap components: %w", logPrefix, err)
		}
	}
	slog.Info(fmt.Sprintf("%s - Component table from database", logPrefix))
	return db.NewRepository(pool), nil
}

func (s *Server) subscribe(ctx context.Context) error {
	clientSubject := s.subjects.Client()
	sub, err := s.nc.Subscribe(clientSubject, func(msg *comms.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, s.cfg.HostCallTimeout)
		defer cancel()

		out := s.session.HandleMessage(reqCtx, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(out); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, clientSubject, err)
	}
	s.subs = append(s.subs, sub)
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, clientSubject))

	uiSubject := s.subjects.UI(UISelectionChanged)
	sub, err = s.nc.Subscribe(uiSubject, func(msg *comms.Msg) {
		var change SelectionChanged
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode selection change: %v", logPrefix, err))
			return
		}
		if _, err := s.session.AnnounceSelection(ctx, change.Objects); err != nil {
			slog.Error(fmt.Sprintf("%s - announce selection: %v", logPrefix, err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, uiSubject, err)
	}
	s.subs = append(s.subs, sub)
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, uiSubject))
	return nil
}

// Session returns the host session.
func (s *Server) Session() *session.HostSession {
	return s.session
}

// Serve runs the HTTP server until ctx is done, then shuts it down.
func (s *Server) Serve(ctx context.Context) error {
	addr := s.cfg.ListenAddr()
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - Shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - host-interop is ready", logPrefix))
	err := g.Wait()
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return err
}

// Close unsubscribes, drains NATS and closes the database pool.
func (s *Server) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	if s.nc != nil {
		s.nc.Drain()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
