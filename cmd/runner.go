package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackline/internal/repositories"
	"github.com/desertthunder/trackline/internal/server"
	"github.com/desertthunder/trackline/internal/session"
	"github.com/desertthunder/trackline/internal/shared"
	"github.com/desertthunder/trackline/internal/spotify"
	"github.com/desertthunder/trackline/internal/tasks"
	"github.com/desertthunder/trackline/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner wires configuration and collaborators into CLI command actions.
type Runner struct {
	logger *log.Logger
}

// NewRunner creates a Runner with the given logger.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Runner{logger: logger}
}

// register returns the CLI commands this runner provides.
func (r *Runner) register() []*cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return []*cli.Command{
		{
			Name:  "serve",
			Usage: "Start the web server",
			Flags: []cli.Flag{
				configFlag,
				&cli.BoolFlag{
					Name:  "open",
					Usage: "Open the login page in the default browser",
				},
			},
			Action: r.Serve,
		},
		{
			Name:   "setup",
			Usage:  "Create a config file and initialize the track cache",
			Flags:  []cli.Flag{configFlag},
			Action: r.Setup,
		},
	}
}

// loadConfig loads the config file named by the --config flag, falling back
// to embedded defaults when the file doesn't exist.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		r.logger.Warnf("config file %s not found, using defaults", path)
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warnf("failed to load %s, using defaults: %v", path, err)
		return shared.DefaultConfig()
	}
	return config
}

// Serve assembles the session, provider clients, timeline engine and HTTP
// routes, then blocks serving requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	creds := config.Credentials.Spotify

	auth, err := spotify.NewAuthenticator(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
	if err != nil {
		return err
	}

	sess := session.New(auth, shared.WithLogger(r.logger, "component", "session"))
	client := spotify.NewClient(nil, sess.AccessToken)

	// Track cache is best-effort: run without it when the database is
	// unavailable.
	var cache tasks.TrackCacher
	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		r.logger.Warnf("track cache disabled: %v", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			r.logger.Warnf("track cache disabled: %v", err)
		} else {
			cache = repositories.NewTrackRepository(db)
		}
	}

	engine := tasks.NewTimelineEngine(sess, client, cache, shared.WithLogger(r.logger, "component", "engine"))

	views, err := web.NewViews()
	if err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(shared.WithLogger(r.logger, "component", "http")))
	if rps := config.Server.RequestsPerSecond; rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		router.Use(server.RateLimit(rate.NewLimiter(rate.Limit(rps), burst)))
	}
	router.Handler(server.NewAppHandler(sess, auth, engine, views, r.logger))

	addr := config.Server.Addr()
	r.logger.Infof("listening on %s", addr)

	if cmd.Bool("open") {
		loginURL := fmt.Sprintf("http://%s/login", addr)
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warnf("failed to open browser: %v", err)
		}
	}

	return http.ListenAndServe(addr, router)
}

// Setup writes a starter config file when one doesn't exist and runs the
// track cache migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
		r.logger.Infof("created %s, fill in your Spotify credentials", path)
	} else {
		r.logger.Infof("config file %s already exists", path)
	}

	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return err
	}

	r.logger.Infof("track cache ready at %s", config.Database.Path)
	return nil
}
