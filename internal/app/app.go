// Package app is the composition root: it builds every scanctl component from
// settings and owns their lifetimes.
package app

import (
	"io"
	"net/http"
	"sync/atomic"

	"github.com/dentalscan/scanctl/internal/conf"
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/httpclient"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/observability"
	"github.com/dentalscan/scanctl/internal/patientapi"
	"github.com/dentalscan/scanctl/internal/poller"
	"github.com/dentalscan/scanctl/internal/repository"
	"github.com/dentalscan/scanctl/internal/session"
	"github.com/dentalscan/scanctl/internal/telemetry"
	"github.com/dentalscan/scanctl/internal/upload"
)

// App holds the wired components for one command invocation
type App struct {
	Settings  *conf.Settings
	Log       logger.Logger
	HTTP      *httpclient.Client
	Session   *session.Session
	API       *patientapi.Client
	Studies   *repository.Studies
	Analyses  *repository.Analyses
	Uploads   *upload.Coordinator
	Metrics   *observability.Metrics
	Localizer *i18n.Localizer

	central     *logger.CentralLogger
	store       *session.SQLiteStore
	unsubscribe func()
	expired     atomic.Bool
}

type options struct {
	transport http.RoundTripper
	console   io.Writer
}

// Option customizes New
type Option func(*options)

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithConsole sends console log output to w instead of stderr
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// New builds the application. The caller must Close it.
func New(settings *conf.Settings, version string, opts ...Option) (*App, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	central, err := newLogger(settings, o.console)
	if err != nil {
		return nil, err
	}
	logger.SetGlobal(central)
	log := central.Module("app")

	if err := telemetry.Init(telemetry.Config{
		Enabled: settings.Telemetry.Enabled,
		DSN:     settings.Telemetry.DSN,
		Version: version,
	}); err != nil {
		// telemetry is optional; the command still runs
		log.Warn("telemetry unavailable", logger.Error(err))
	}

	a := &App{
		Settings:  settings,
		Log:       log,
		Localizer: i18n.New(settings.Locale),
		central:   central,
	}

	a.Metrics, err = observability.NewMetrics()
	if err != nil {
		a.closeLogger()
		return nil, err
	}

	a.store, err = session.OpenSQLiteStore(settings.Session.Path, central.Module("session"))
	if err != nil {
		a.closeLogger()
		return nil, err
	}

	a.Session, err = session.New(a.store, central.Module("session"))
	if err != nil {
		_ = a.store.Close()
		a.closeLogger()
		return nil, err
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.BaseURL = settings.API.BaseURL
	httpCfg.DefaultTimeout = settings.HTTP.Timeout
	httpCfg.UserAgent = userAgent(settings.HTTP.UserAgent, version)
	httpCfg.Transport = o.transport
	httpCfg.Logger = central.Module("httpclient")
	a.HTTP = httpclient.New(&httpCfg)
	session.NewGuard(a.Session).Attach(a.HTTP)
	a.HTTP.AddAfterResponseHook(a.Metrics.Client.ObserveResponse)

	a.unsubscribe = a.Session.OnUnauthorized(func() {
		a.expired.Store(true)
		a.Metrics.Session.RecordTeardown()
		log.Warn("session ended by the server")
	})

	a.API = patientapi.New(a.HTTP,
		patientapi.WithUploadTimeout(settings.HTTP.UploadTimeout),
		patientapi.WithLogger(central.Module("patientapi")))

	a.Studies = repository.NewStudies(a.API, central.Module("repository"))
	a.Analyses = repository.NewAnalyses(a.API,
		repository.WithBusyTTL(settings.Busy.TTL),
		repository.WithRejectionRecorder(a.Metrics.Session),
		repository.WithLogger(central.Module("repository")))

	a.Uploads = upload.NewCoordinator(a.API, a.Studies, a.Analyses,
		upload.WithLogger(central.Module("upload")),
		upload.WithRecorder(a.Metrics.Upload))

	log.Debug("application initialized",
		logger.String("api", settings.API.BaseURL),
		logger.String("locale", a.Localizer.Tag().String()),
		logger.Bool("authenticated", a.Session.Authenticated()),
		logger.Bool("telemetry", telemetry.Enabled()))

	return a, nil
}

// Poller returns a watch loop over the analysis repository. Each observed
// refresh also updates the watched-analyses gauge.
func (a *App) Poller(observer poller.Observer) *poller.Poller {
	var p *poller.Poller
	p = poller.New(a.Analyses, poller.Config{
		Interval: a.Settings.Poll.Interval,
		Burst:    a.Settings.Poll.Burst,
	}, a.central.Module("poller"), func(analysis model.Analysis, err error) {
		a.Metrics.Session.SetWatched(p.Pending())
		if observer != nil {
			observer(analysis, err)
		}
	})
	return p
}

// SessionExpired reports whether a 401 ended the session during this run
func (a *App) SessionExpired() bool {
	return a.expired.Load()
}

// Close exports metrics, flushes telemetry and releases the session store and logger.
func (a *App) Close() error {
	var errs []error

	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if err := a.Metrics.WriteTextfile(a.Settings.Metrics.Textfile); err != nil {
		a.Log.Warn("metrics export failed", logger.Error(err))
		errs = append(errs, err)
	}
	a.HTTP.Close()
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}

	telemetry.Shutdown()
	a.closeLogger()

	return errors.Join(errs...)
}

func (a *App) closeLogger() {
	_ = a.central.Flush()
	_ = a.central.Close()
}

// newLogger builds the central logger; --debug raises every output to debug
func newLogger(settings *conf.Settings, console io.Writer) (*logger.CentralLogger, error) {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = "debug"
		cfg.Console = &logger.ConsoleOutput{Enabled: true, Level: "debug"}
	}

	var opts []logger.Option
	if console != nil {
		opts = append(opts, logger.WithConsoleWriter(console))
	}

	central, err := logger.NewCentralLogger(&cfg, opts...)
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_logger").
			Build()
	}
	return central, nil
}

func userAgent(configured, version string) string {
	if configured == "" {
		configured = conf.DefaultUserAgent
	}
	if version == "" {
		return configured
	}
	return configured + "/" + version
}
