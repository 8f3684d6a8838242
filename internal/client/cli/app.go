package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dmitrijs2005/incidentauth/internal/client/client"
	"github.com/dmitrijs2005/incidentauth/internal/client/config"
	"github.com/dmitrijs2005/incidentauth/internal/client/models"
	"github.com/dmitrijs2005/incidentauth/internal/client/notify"
	"github.com/dmitrijs2005/incidentauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/incidentauth/internal/client/securitylog"
	"github.com/dmitrijs2005/incidentauth/internal/client/services"
	"github.com/dmitrijs2005/incidentauth/internal/client/session"
	"github.com/dmitrijs2005/incidentauth/internal/client/tokens"
	"github.com/dmitrijs2005/incidentauth/internal/filex"
	"github.com/dmitrijs2005/incidentauth/internal/logging"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	session     *session.Session
	tokens      tokens.Storage
	device      *models.DeviceInfo
	reader      *bufio.Reader
	log         logging.Logger
	db          *sql.DB
}

// NewApp opens the local database under the configured data directory and
// wires the auth stack on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := client.OpenDatabase(ctx, filepath.Join(dir, c.DBFile))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := tokens.NewStore(metadata.NewSQLiteRepository(db))

	apiClient, err := client.NewHTTPClient(c.APIBaseURL, store,
		client.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		client.WithLogger(log.With("component", "api")))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, store, notify.NewHTTPNotifier(apiClient),
		securitylog.NewDurable(db), log.With("component", "auth"))

	a := newApp(c, as, store, bufio.NewReader(os.Stdin), log)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, store tokens.Storage, reader *bufio.Reader, log logging.Logger) *App {
	return &App{
		config:      c,
		authService: as,
		session:     session.New(as),
		tokens:      store,
		device:      &models.DeviceInfo{Browser: "incidentauth-cli", OS: runtime.GOOS},
		reader:      reader,
		log:         log,
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.Root(ctx)
}

// Close tears down the session and the local database.
func (a *App) Close() {
	a.session.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "close database", "error", err)
		}
		a.db = nil
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Authenticated
}

// report prints a user-facing line for err. Transport failures and
// unreadable backend answers get a generic message; the details go to the
// log.
func (a *App) report(ctx context.Context, err error) {
	if errors.Is(err, client.ErrUnavailable) || errors.Is(err, client.ErrMalformedResponse) {
		a.log.Warn(ctx, "backend unavailable", "error", err)
		printlnFn("Connection error, please try again later")
		return
	}
	printlnFn("Error:", err.Error())
}
