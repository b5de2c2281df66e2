package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/config"
	"github.com/dmitrijs2005/traintrack/internal/client/services"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config    *config.Config
	log       logging.Logger
	repos     *storage.Repositories
	auth      services.AuthService
	training  services.TrainingService
	engine    *services.SyncEngine
	lifecycle *services.Lifecycle

	userName        string
	currentActivity int64
	Mode            Mode
	reader          *bufio.Reader
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {

	ctx := context.Background()

	repos, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	if _, err := storage.EnsureDeviceID(ctx, repos.Metadata); err != nil {
		return nil, err
	}

	tokens := services.NewTokenStore(repos.Metadata)
	apiClient := api.NewHTTPClient(c.APIBaseURL, tokens)

	auth := services.NewAuthService(apiClient, tokens, repos.Metadata, log)
	engine := services.NewSyncEngine(repos, apiClient, log)
	training := services.NewTrainingService(repos, engine, log)
	bootstrap := services.NewBootstrap(repos, apiClient, log, c.HistoryLimit, c.PlanRetention)
	lifecycle := services.NewLifecycle(engine, bootstrap, apiClient, tokens, repos, log,
		c.SyncInterval, c.OnlineCheckInterval)

	return &App{
		config:    c,
		log:       log,
		repos:     repos,
		auth:      auth,
		training:  training,
		engine:    engine,
		lifecycle: lifecycle,
		Mode:      ModeOnline,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		printlnFn("Switched to", string(mode), "mode")
	}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) Run(ctx context.Context) {
	defer a.repos.Close()
	a.Root(ctx)
}
