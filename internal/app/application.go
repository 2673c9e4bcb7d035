package app

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gitalky/gitalky/internal/audit"
	"github.com/gitalky/gitalky/internal/config"
	"github.com/gitalky/gitalky/internal/core"
	"github.com/gitalky/gitalky/internal/dispatcher"
	"github.com/gitalky/gitalky/internal/eventbus"
	"github.com/gitalky/gitalky/internal/git"
	"github.com/gitalky/gitalky/internal/llm"
	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/internal/security"
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.PipelineService
	model      *AppModel
	logFile    *os.File
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewApplication(cfg *config.Config, repo *git.Repository) (*Application, error) {
	logFile, err := configureLogging()
	if err != nil {
		return nil, err
	}

	auditor, err := audit.New()
	if err != nil {
		return nil, err
	}

	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)

	// Without an API key the service starts in offline mode and input is
	// validated as raw git commands.
	var translator core.QueryTranslator
	var client llm.Client
	if cfg.HasAPIKey() {
		oc := llm.NewOpenAIClient(cfg.APIKey(), cfg.LLM.Model, cfg.LLM.BaseURL)
		client = oc
		translator = llm.NewTranslatorWithAudit(oc, llm.NewContextBuilder(repo), security.NewValidator(), auditor)
	} else {
		log.Info().Msg("no API key configured, starting offline")
	}

	service := core.NewPipelineService(repo, cfg, translator, client, auditor, eb)

	model := &AppModel{
		appModel:   models.AppModel{Status: "Starting..."},
		dispatcher: disp,
	}

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    service,
		model:      model,
		logFile:    logFile,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
	if app.logFile != nil {
		app.logFile.Close()
	}
}

// configureLogging sends zerolog output to a file in the config directory.
// The TUI owns stdout; diagnostics must never write there.
func configureLogging() (*os.File, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Join(dir, "gitalky.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}
