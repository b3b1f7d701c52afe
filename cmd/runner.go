package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/actions"
	"github.com/desertthunder/libris/internal/auth"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/repositories"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/desertthunder/libris/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	httpClient *http.Client

	store      *library.Store
	api        *services.APIService
	dispatcher *actions.Dispatcher
	bridge     *auth.Bridge
	engine     *tasks.Engine
	jobs       models.Repository[*models.ImportJob]

	// readPassword reads a secret without echo when stdin is a terminal.
	readPassword func() (string, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	// Provider is the identity provider; auth commands fail without one.
	Provider services.IdentityProvider
	// DB records import jobs when set.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	mode, err := library.ParseMode(opts.Config.UI.Mode)
	if err != nil {
		opts.Logger.Warn("unknown ui.mode, using collections", "mode", opts.Config.UI.Mode)
		mode = library.ModeCollections
	}

	store := library.NewStore(mode, opts.Config.Identity.AdminUsername)
	api := services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient).
		WithSession(store).
		WithRateLimit(opts.Config.API.RateLimit)
	dispatcher := actions.NewDispatcher(api, store, opts.Logger)
	engine := tasks.NewEngine(api, store, opts.Logger).
		WithCatalog(dispatcher.Catalog()).
		WithHTTPClient(opts.HTTPClient)

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		httpClient: opts.HTTPClient,
		store:      store,
		api:        api,
		dispatcher: dispatcher,
		engine:     engine,
	}
	r.readPassword = r.readSecret

	if opts.Provider != nil {
		r.bridge = auth.NewBridge(opts.Provider, store, opts.Logger).
			WithCatalog(dispatcher.Catalog()).
			WithMembership(dispatcher.Membership())
	}
	if opts.DB != nil {
		r.jobs = repositories.NewImportJobRepository(opts.DB)
		r.engine.WithJobs(r.jobs)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, booksCommand, favoritesCommand, listsCommand,
		adminCommand, chatCommand, catalogCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireBridge returns the auth bridge, or an error naming the missing identity settings.
func (r *Runner) requireBridge() (*auth.Bridge, error) {
	if r.bridge == nil {
		return nil, fmt.Errorf("%w: identity provider not configured (set identity.client_id and identity.user_pool_id)", shared.ErrServiceUnavailable)
	}
	return r.bridge, nil
}

// restore brings back the remembered session, which also loads the catalog.
// Without an identity provider the catalog is loaded anonymously.
func (r *Runner) restore(ctx context.Context) error {
	if r.bridge == nil {
		return r.dispatcher.LoadCatalog(ctx)
	}
	if err := r.bridge.RestoreSession(ctx); err != nil {
		r.logger.Warn("session restore failed, continuing signed out", "error", err)
	}
	return nil
}

// prompt writes label and reads one line of input.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s", label); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (r *Runner) confirm(question string) bool {
	answer, err := r.prompt(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (r *Runner) readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := r.input.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	secret, err := term.ReadPassword(fd)
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func (r *Runner) promptPassword(label string) (string, error) {
	if err := r.writePlain("%s", label); err != nil {
		return "", err
	}
	return r.readPassword()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
