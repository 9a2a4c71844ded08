// Command repstack runs the fitness-blog admin backend: a content API over
// a git-backed store, magic-link login, preview rendering and scheduled
// publishing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/repstack/repstack/internal/auth"
	"github.com/repstack/repstack/internal/config"
	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/publisher"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/httpserver"
	"github.com/repstack/repstack/internal/store"
	"github.com/repstack/repstack/internal/store/githubstore"
	"github.com/repstack/repstack/internal/store/gitstore"
	"github.com/repstack/repstack/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"repstack.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Run the admin backend"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Check struct{} `cmd:"" help:"Validate configuration and store wiring"`

	Token struct {
		Email string `arg:"" optional:"" help:"Address to issue the login link for (defaults to the operator)"`
	} `cmd:"" help:"Issue a login link locally without email delivery"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	kctx := kong.Parse(&CLI)

	levelVar := new(slog.LevelVar)
	if CLI.Verbose {
		levelVar.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	adapter := reperrors.NewCLIAdapter(CLI.Verbose, logger)

	var err error
	switch kctx.Command() {
	case "serve":
		err = runServe(CLI.Config, levelVar)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "check":
		err = runCheck(CLI.Config)
	case "token", "token <email>":
		err = runToken(CLI.Config, CLI.Token.Email)
	case "version":
		fmt.Println(version.Version)
	}

	adapter.HandleError(err)
}

func runServe(configPath string, levelVar *slog.LevelVar) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !CLI.Verbose {
		levelVar.Set(cfg.Logging.SlogLevel())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := metrics.Recorder(metrics.NoopRecorder{})
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.Handler(reg)
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	svc := content.NewService(store.Instrument(st, rec), cfg.Store.PostsDir, cfg.Store.PagesDir)

	tokens, err := auth.NewTokenStore(cfg.Auth.TokenDB)
	if err != nil {
		return err
	}
	signer, err := auth.NewSessionSigner(cfg.Auth.SessionSecret, cfg.Auth.SessionTokenTTL())
	if err != nil {
		return err
	}
	manager, err := auth.NewManager(auth.Options{
		OperatorEmail: cfg.Auth.OperatorEmail,
		BaseURL:       cfg.Auth.BaseURL,
		LoginTTL:      cfg.Auth.LoginTokenTTL(),
	}, tokens, signer, nil, rec)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := manager.Close(); cerr != nil {
			slog.Warn("closing auth manager", logfields.Error(cerr))
		}
	}()

	// Content events are advisory; a dead NATS server degrades to noop
	// rather than blocking edits.
	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Notify.Enabled() {
		nc, nerr := notify.NewNATSNotifier(cfg.Notify.URL, cfg.Notify.Subject)
		if nerr != nil {
			slog.Warn("content events disabled", logfields.Error(nerr))
		} else {
			notifier = nc
		}
	}
	defer notifier.Close()

	if !cfg.Publisher.Disabled {
		pub, perr := publisher.New(svc, notifier, manager, rec, publisher.Options{
			SweepInterval: cfg.Publisher.SweepEvery(),
			PurgeInterval: cfg.Publisher.PurgeEvery(),
		})
		if perr != nil {
			return perr
		}
		if perr := pub.Start(); perr != nil {
			return perr
		}
		defer func() {
			if serr := pub.Stop(); serr != nil {
				slog.Warn("stopping publisher", logfields.Error(serr))
			}
		}()
	}

	srv := httpserver.New(httpserver.Options{
		Addr:           cfg.Server.Addr,
		CORSOrigin:     cfg.Server.CORSOrigin,
		BlogHost:       cfg.Site.Host,
		MetricsHandler: metricsHandler,
		Recorder:       rec,
	}, svc, manager, notifier)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	watcher, werr := config.NewWatcher(configPath, cfg, func(_ context.Context, updated *config.Config) error {
		if !CLI.Verbose {
			levelVar.Set(updated.Logging.SlogLevel())
		}
		return nil
	})
	if werr == nil {
		werr = watcher.Start(ctx)
	}
	if werr != nil {
		slog.Warn("configuration watcher not running", logfields.Error(werr))
	} else {
		defer watcher.Stop()
	}

	slog.Info("repstack serving",
		logfields.Store(st.Name()),
		slog.String("version", version.Version))

	<-ctx.Done()
	slog.Info("shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace())
	defer stopCancel()
	return srv.Stop(stopCtx)
}

func runInit(configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	slog.Info("configuration written", logfields.File(configPath))
	return nil
}

// runCheck loads the configuration, constructs every configured component
// and lists the posts directory once, so a broken token or path fails here
// instead of at first request.
func runCheck(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	if _, err := auth.NewSessionSigner(cfg.Auth.SessionSecret, cfg.Auth.SessionTokenTTL()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := content.NewService(st, cfg.Store.PostsDir, cfg.Store.PagesDir)
	posts, err := svc.ListPosts(ctx)
	if err != nil {
		return err
	}

	slog.Info("configuration OK",
		logfields.Store(st.Name()),
		slog.Int("posts", len(posts)))
	return nil
}

// runToken issues a login token through the normal request path with the
// logging mailer, so the link lands in the terminal instead of a mailbox.
func runToken(configPath, email string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if email == "" {
		email = cfg.Auth.OperatorEmail
	}

	tokens, err := auth.NewTokenStore(cfg.Auth.TokenDB)
	if err != nil {
		return err
	}
	signer, err := auth.NewSessionSigner(cfg.Auth.SessionSecret, cfg.Auth.SessionTokenTTL())
	if err != nil {
		return err
	}
	manager, err := auth.NewManager(auth.Options{
		OperatorEmail: cfg.Auth.OperatorEmail,
		BaseURL:       cfg.Auth.BaseURL,
		LoginTTL:      cfg.Auth.LoginTokenTTL(),
	}, tokens, signer, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := manager.Close(); cerr != nil {
			slog.Warn("closing auth manager", logfields.Error(cerr))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := manager.RequestLogin(ctx, email); err != nil {
		return err
	}
	slog.Info("login link issued if the address matches the operator", logfields.Email(email))
	return nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "github":
		gh := cfg.Store.GitHub
		return githubstore.New(githubstore.Options{
			Owner:          gh.Owner,
			Repo:           gh.Repo,
			Branch:         gh.Branch,
			Token:          gh.Token,
			APIURL:         gh.APIURL,
			CommitterName:  gh.CommitterName,
			CommitterEmail: gh.CommitterEmail,
		})
	case "git":
		g := cfg.Store.Git
		return gitstore.New(gitstore.Options{
			Path:           g.Path,
			CommitterName:  g.CommitterName,
			CommitterEmail: g.CommitterEmail,
		})
	default:
		return nil, reperrors.ConfigError("unknown store backend").
			WithContext("backend", cfg.Store.Backend).
			Build()
	}
}
