package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/adapter"
	"github.com/julianstephens/daylit-planner/internal/config"
	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/scheduler"
	"github.com/julianstephens/daylit-planner/internal/storage"
	"github.com/julianstephens/daylit-planner/internal/storage/postgres"
	"github.com/julianstephens/daylit-planner/internal/storage/sqlite"
)

// Context is handed to every command's Run method
type Context struct {
	Config     *config.Config
	ConfigPath string
	Scheduler  *scheduler.Scheduler
	Out        io.Writer
	In         io.Reader
	// Now is the wall clock; tests replace it
	Now func() time.Time

	ctx   context.Context
	store storage.Provider
}

func NewContext(ctx context.Context, configPath string, cfg *config.Config) *Context {
	return &Context{
		Config:     cfg,
		ConfigPath: configPath,
		Scheduler:  scheduler.New(),
		Out:        os.Stdout,
		In:         os.Stdin,
		Now:        time.Now,
		ctx:        ctx,
	}
}

// Context is cancelled on interrupt
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// NewStore picks the archive backend for target: a postgres:// connection
// string, a .json file, or a SQLite database path
func NewStore(target string) (storage.Provider, error) {
	if postgres.IsConnString(target) {
		if err := postgres.ValidateConnString(target); err != nil {
			return nil, err
		}
		return postgres.New(target), nil
	}

	path, err := ExpandPath(target)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// StoreTarget is where runs are archived
func (c *Context) StoreTarget() string {
	if c.Config != nil && c.Config.Storage != "" {
		return c.Config.Storage
	}
	return constants.DefaultStorePath
}

// Store opens the archive on first use
func (c *Context) Store() (storage.Provider, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := NewStore(c.StoreTarget())
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// SetStore installs an already opened archive
func (c *Context) SetStore(store storage.Provider) {
	c.store = store
}

func (c *Context) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// Input is a decoded scheduling request together with the document it came from
type Input struct {
	Request  scheduler.Request
	Document *adapter.Document
	// Raw is the compacted input document, archived with saved runs
	Raw      []byte
	Location *time.Location
}

// InputOptions names the files a request is built from
type InputOptions struct {
	// Path is a JSON input document; "-" reads the command's input stream
	Path string
	// ICS files contribute locked events
	ICS           []string
	IncludeAllDay bool
}

func (c *Context) readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.In)
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(expanded)
}

// LoadInput decodes the input document and calendars using the config for everything they leave out
func (c *Context) LoadInput(opts InputOptions) (*Input, error) {
	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}

	raw, err := c.readFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	doc, err := adapter.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	now := c.Now().In(loc)
	horizon, err := cfg.Horizon(now)
	if err != nil {
		return nil, err
	}
	hours, err := cfg.ActiveHours()
	if err != nil {
		return nil, err
	}

	d := adapter.Defaults{
		Location:         loc,
		Horizon:          horizon,
		ActiveHours:      hours,
		Weights:          cfg.Weights,
		IterationCeiling: cfg.IterationCeiling,
		Breaks:           cfg.BreakSettings(),
	}
	// a document with its own horizon is replayed as written; otherwise plan from now
	if doc.Horizon == nil {
		d.Now = now
	}

	req, err := doc.Request(d)
	if err != nil {
		return nil, err
	}

	for _, path := range opts.ICS {
		data, err := c.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read calendar: %w", err)
		}
		events, err := adapter.ImportICS(bytes.NewReader(data), adapter.ICSOptions{Location: loc, IncludeAllDay: opts.IncludeAllDay})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		req.LockedEvents = append(req.LockedEvents, events...)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("failed to compact input: %w", err)
	}

	return &Input{Request: req, Document: doc, Raw: compact.Bytes(), Location: loc}, nil
}
