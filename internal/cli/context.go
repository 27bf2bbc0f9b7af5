// Package cli holds what every scanctl subcommand shares: lazily loaded settings,
// the wired application, and the conversion of errors into localized output.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dentalscan/scanctl/internal/app"
	"github.com/dentalscan/scanctl/internal/buildinfo"
	"github.com/dentalscan/scanctl/internal/conf"
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Context is created once in main and handed to every command constructor
type Context struct {
	Build      *buildinfo.Context
	ConfigFile string

	// Options are passed to app.New; tests inject a mock transport here
	Options []app.Option

	mu       sync.Mutex
	settings *conf.Settings
	app      *app.App
}

// NewContext returns a context for the given build metadata
func NewContext(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// Settings loads the configuration on first use
func (c *Context) Settings() (*conf.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settingsLocked()
}

func (c *Context) settingsLocked() (*conf.Settings, error) {
	if c.settings != nil {
		return c.settings, nil
	}
	settings, err := conf.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	c.settings = settings
	return settings, nil
}

// App builds the application on first use
func (c *Context) App() (*app.App, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.app != nil {
		return c.app, nil
	}
	settings, err := c.settingsLocked()
	if err != nil {
		return nil, err
	}
	a, err := app.New(settings, c.Build.Version(), c.Options...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Authenticated builds the application and fails when no session is stored
func (c *Context) Authenticated() (*app.App, error) {
	a, err := c.App()
	if err != nil {
		return nil, err
	}
	if !a.Session.Authenticated() {
		return nil, UserError(a.Localizer.T(i18n.MsgAuthRequired))
	}
	return a, nil
}

// Localizer returns the application localizer, or one built from the locale
// setting when the application could not be created
func (c *Context) Localizer() *i18n.Localizer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app != nil {
		return c.app.Localizer
	}
	if c.settings != nil {
		return i18n.New(c.settings.Locale)
	}
	return i18n.New(conf.DefaultLocale)
}

// Close releases the application if it was built
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// Fail turns err into the localized message the user sees. Once a 401 has ended
// the session every failure reads as an expired session; fallback covers errors
// without display text.
func (c *Context) Fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var shown *userError
	if errors.As(err, &shown) {
		return err
	}
	if errors.IsCategory(err, errors.CategoryConfiguration) {
		// settings problems are the user's to fix and carry their own text
		return &userError{msg: err.Error(), cause: err}
	}

	l := c.Localizer()
	c.mu.Lock()
	expired := c.app != nil && c.app.SessionExpired()
	c.mu.Unlock()

	if expired {
		return UserError(l.T(i18n.MsgSessionExpired))
	}
	return &userError{msg: l.Message(errors.DisplayMessage(err, l.T(fallback))), cause: err}
}

// userError carries text that is already fit for display
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.cause }

// UserError wraps display text as an error
func UserError(msg string) error {
	return &userError{msg: msg}
}

// ParseID parses a positive numeric id argument
func (c *Context) ParseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil || id == 0 {
		return 0, UserError(c.Localizer().T(i18n.MsgInvalidID, arg))
	}
	return id, nil
}

// Prompt writes label to out and reads one line from in without the line ending.
// Share one reader between prompts so buffered input is not lost.
func Prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
