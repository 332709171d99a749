package config

import (
	"os"
	"path/filepath"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DirName is the workspace's hidden state directory.
	DirName = ".foreman"

	configFile       = "config.toml"
	instructionsFile = "overseer/INSTRUCTIONS.md"
	runDir           = "run"
	storeDir         = "store"

	tokenEnvVar = "FOREMAN_TOKEN"

	defaultLLMCommand       = "claude"
	defaultMaxWorkers       = 5
	defaultWarnThresholdUSD = 5.0
	defaultBudgetUSD        = 10.0
)

// App holds [app] settings.
type App struct {
	Version    string `toml:"version"`
	LLMCommand string `toml:"llm_command"`
}

// Overseer holds [overseer] settings.
type Overseer struct {
	MaxWorkers int `toml:"max_workers"`
}

// Costs holds [costs] settings.
type Costs struct {
	WarnThresholdUSD float64 `toml:"warn_threshold_usd"`
	BudgetUSD        float64 `toml:"budget_usd"`
}

// CodeHost holds [code_host] settings.
type CodeHost struct {
	Token string `toml:"token"`
}

// Session holds [session] settings, maintained by the CLI as the operator
// switches codebases.
type Session struct {
	CurrentCodebase string `toml:"current_codebase"`
}

// Config is the full decoded shape of config.toml.
type Config struct {
	App      App      `toml:"app"`
	Overseer Overseer `toml:"overseer"`
	Costs    Costs    `toml:"costs"`
	CodeHost CodeHost `toml:"code_host"`
	Session  Session  `toml:"session"`
}

// Default returns a Config carrying every documented default.
func Default() Config {
	return Config{
		App:      App{Version: "0.1.0", LLMCommand: defaultLLMCommand},
		Overseer: Overseer{MaxWorkers: defaultMaxWorkers},
		Costs:    Costs{WarnThresholdUSD: defaultWarnThresholdUSD, BudgetUSD: defaultBudgetUSD},
	}
}

// Paths locates every workspace file under root/.foreman/.
type Paths struct {
	Root string
}

func NewPaths(root string) Paths { return Paths{Root: root} }

func (p Paths) Dir() string          { return filepath.Join(p.Root, DirName) }
func (p Paths) ConfigFile() string   { return filepath.Join(p.Dir(), configFile) }
func (p Paths) Instructions() string { return filepath.Join(p.Dir(), instructionsFile) }
func (p Paths) RunDir() string       { return filepath.Join(p.Dir(), runDir) }
func (p Paths) StoreDir() string     { return filepath.Join(p.Dir(), storeDir) }

// Store is the key/value view of the workspace config the rest of the
// core depends on, narrower than the decoded Config struct so callers
// that only need a handful of values don't have to reach through the
// whole TOML shape.
type Store interface {
	Get(section, key string) (string, bool)
	Set(section, key, value string) error
	Save() error
}

// FileStore is the concrete Store backed by config.toml.
type FileStore struct {
	path string
	cfg  Config
}

// Init creates the workspace skeleton (.foreman/ and its subdirectories,
// a default config.toml, and a starter INSTRUCTIONS.md) at root. If force
// is false and config.toml already exists, Init refuses.
func Init(root string, force bool) (*FileStore, error) {
	paths := NewPaths(root)
	if !force {
		if _, err := os.Stat(paths.ConfigFile()); err == nil {
			return nil, ferrors.New(ferrors.AlreadyExists, paths.ConfigFile())
		}
	}
	for _, dir := range []string{paths.Dir(), paths.RunDir(), paths.StoreDir(), filepath.Dir(paths.Instructions())} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, ferrors.Wrap(ferrors.StorageError, err)
		}
	}
	fs := &FileStore{path: paths.ConfigFile(), cfg: Default()}
	if err := fs.Save(); err != nil {
		return nil, err
	}
	if err := os.WriteFile(paths.Instructions(), []byte(defaultInstructions), 0o644); err != nil {
		return nil, ferrors.Wrap(ferrors.StorageError, err)
	}
	return fs, nil
}

// Load decodes config.toml at root. The [code_host] token is overridden by
// FOREMAN_TOKEN when that environment variable is set.
func Load(root string) (*FileStore, error) {
	path := NewPaths(root).ConfigFile()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.New(ferrors.NotInWorkspace, path)
		}
		return nil, ferrors.Wrap(ferrors.StorageError, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.Wrap(ferrors.StorageError, err)
	}
	if token := os.Getenv(tokenEnvVar); token != "" {
		cfg.CodeHost.Token = token
	}
	return &FileStore{path: path, cfg: cfg}, nil
}

// Config returns the decoded configuration.
func (f *FileStore) Config() Config { return f.cfg }

// Get implements Store with a switch over a fixed set of known
// (section, key) pairs; unknown pairs report !ok.
func (f *FileStore) Get(section, key string) (string, bool) {
	switch section + "." + key {
	case "app.version":
		return f.cfg.App.Version, true
	case "app.llm_command":
		return f.cfg.App.LLMCommand, true
	case "session.current_codebase":
		return f.cfg.Session.CurrentCodebase, true
	case "code_host.token":
		return f.cfg.CodeHost.Token, true
	default:
		return "", false
	}
}

// Set mutates the in-memory config for one of the same known keys; it
// does not persist until Save is called.
func (f *FileStore) Set(section, key, value string) error {
	switch section + "." + key {
	case "app.llm_command":
		f.cfg.App.LLMCommand = value
	case "session.current_codebase":
		f.cfg.Session.CurrentCodebase = value
	case "code_host.token":
		f.cfg.CodeHost.Token = value
	default:
		return ferrors.NotFoundf("config key %s.%s", section, key)
	}
	return nil
}

// Save encodes the config back to config.toml.
func (f *FileStore) Save() error {
	data, err := toml.Marshal(f.cfg)
	if err != nil {
		return ferrors.Wrap(ferrors.StorageError, err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return ferrors.Wrap(ferrors.StorageError, err)
	}
	return nil
}

const defaultInstructions = `# Overseer Instructions

You are an autonomous work-item agent running inside an isolated sandbox.
Read the sandbox contents and your assigned work item's description, make
the required changes, and exit zero on success. The orchestrator records
your token usage and cost from this session's structured event log and
will retry a failed attempt up to the configured retry limit, budget
permitting.
`
