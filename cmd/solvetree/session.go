package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/solvetree/internal/config"
	"github.com/jask/solvetree/internal/database"
	"github.com/jask/solvetree/internal/database/repository"
	"github.com/jask/solvetree/internal/host"
	"github.com/jask/solvetree/internal/logging"
	"github.com/jask/solvetree/internal/prefs"
	"github.com/jask/solvetree/internal/protocol"
	"github.com/jask/solvetree/internal/secrets"
	"github.com/jask/solvetree/internal/service"
	"github.com/jask/solvetree/internal/testdata"
	"github.com/jask/solvetree/internal/tui"
)

// process-wide state set up by the root command
var (
	cfg config.Config
	log *zap.Logger
	db  *sql.DB
)

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if hostOverride != "" {
		cfg.Host.URL = hostOverride
	}
	if noJournal {
		cfg.Journal.Enabled = false
	}
	log, err = logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log.Debug("starting", zap.String("command", cmd.CommandPath()), zap.String("config", config.Path()))
	return nil
}

func teardown(*cobra.Command, []string) {
	if db != nil {
		_ = db.Close()
		db = nil
	}
	if log != nil {
		_ = log.Sync()
	}
}

// openDB opens the journal database on first use.
func openDB() (*sql.DB, error) {
	if db != nil {
		return db, nil
	}
	var err error
	db, err = database.OpenJournal(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}

// journal returns nil when journaling is disabled.
func journal() (*service.JournalService, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	d, err := openDB()
	if err != nil {
		return nil, err
	}
	return &service.JournalService{
		Sessions: repository.NewSessionRepo(d),
		Messages: repository.NewMessageRepo(d),
		Log:      log,
	}, nil
}

// resolveToken resolves the host token with priority:
// env var named by host.token_env -> secrets store -> config host.token.
func resolveToken(url string) string {
	if cfg.Host.TokenEnv != "" {
		if v := os.Getenv(cfg.Host.TokenEnv); v != "" {
			return v
		}
	}
	if store, err := secrets.DefaultStore(); err == nil {
		if tok, err := store.FetchHostToken(url); err == nil && tok != "" {
			return tok
		} else if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			log.Warn("read secret store", zap.Error(err))
		}
	}
	return cfg.Host.Token
}

func runAttach(cmd *cobra.Command, args []string) error {
	url := cfg.Host.URL
	if len(args) == 1 {
		url = args[0]
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Host.DialTimeout)
	conn, err := host.Dial(ctx, url, host.DialOptions{
		Token:   resolveToken(url),
		Timeout: cfg.Host.DialTimeout,
		Logger:  log,
	})
	cancel()
	if err != nil {
		return err
	}
	return runSession(cmd.Context(), conn, session{host: url, mode: config.ModeWebSocket, journal: true})
}

// runStdio speaks the protocol on stdin/stdout, so the panel draws on the
// controlling terminal instead.
func runStdio(cmd *cobra.Command, _ []string) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("stdio mode needs a controlling terminal: %w", err)
	}
	defer tty.Close()
	conn, err := host.NewPipeLines(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return runSession(cmd.Context(), conn, session{
		host:    "stdio",
		mode:    config.ModeStdio,
		journal: true,
		program: []tea.ProgramOption{tea.WithInput(tty), tea.WithOutput(tty)},
	})
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if demoVars < 1 || demoDepth < 1 {
		return fmt.Errorf("--vars and --depth must be positive")
	}
	conn := testdata.NewFakeHost(testdata.Generate(demoSeed, demoVars, demoDepth))
	return runSession(cmd.Context(), conn, session{
		host:    fmt.Sprintf("demo:%d", demoSeed),
		mode:    "demo",
		journal: true,
	})
}

type session struct {
	host    string
	mode    string
	journal bool
	program []tea.ProgramOption
}

// runSession wires conn to the panel: a pump feeds host messages into the
// program while a single writer sends the program's requests, in order,
// through a journaling sender.
// It returns when the panel quits.
func runSession(parent context.Context, conn host.Conn, s session) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		j   *service.JournalService
		err error
	)
	if s.journal {
		if j, err = journal(); err != nil {
			_ = conn.Close()
			return err
		}
	}
	sess, err := j.Start(ctx, s.host, s.mode)
	if err != nil {
		_ = conn.Close()
		return err
	}

	store, err := prefs.DefaultStore()
	if err != nil {
		_ = conn.Close()
		return err
	}
	p, err := store.Load()
	if err != nil {
		log.Warn("load prefs", zap.Error(err))
	}
	view := cfg.UI.DomainView
	if p.DomainView != "" {
		view = p.DomainView
	}

	sender := &service.Sender{Conn: conn, Journal: j, SessionID: sess.ID, Log: log}
	writer := tui.NewWriter(sender, log)
	app := tui.New(writer, tui.Options{
		SessionID:     sess.ID,
		Host:          s.host,
		DomainView:    view,
		SpacingFactor: cfg.UI.SpacingFactor,
		Log:           log,
		OnDomainView: func(v string) {
			if err := store.Update(func(p *prefs.Prefs) { p.DomainView = v }); err != nil {
				log.Warn("save prefs", zap.Error(err))
			}
		},
	})
	program := tea.NewProgram(app, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, s.program...)...)

	pump := &service.Pump{
		Conn:      conn,
		Journal:   j,
		SessionID: sess.ID,
		Log:       log,
		Deliver:   func(env protocol.Envelope) { program.Send(tui.EnvelopeMsg{Envelope: env}) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writer.Run(gctx, program.Send)
	})
	g.Go(func() error {
		err := pump.Run(gctx)
		program.Send(tui.HostClosedMsg{Err: err})
		return err
	})
	g.Go(func() error {
		// the panel owns the session; quitting it stops the pump
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	err = g.Wait()

	if endErr := j.End(context.Background(), sess.ID); endErr != nil {
		log.Warn("end session", zap.Error(endErr))
	}
	if s.journal {
		if uerr := store.Update(func(p *prefs.Prefs) {
			p.LastSession = sess.ID
			p.RememberHost(s.host)
		}); uerr != nil {
			log.Warn("save prefs", zap.Error(uerr))
		}
	}
	return err
}
