package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Run       RunConfig       `toml:"run"`
	Functions FunctionsConfig `toml:"functions"`
}

type RunConfig struct {
	File      string   `toml:"file,omitempty"`
	MaxSteps  uint64   `toml:"max_steps,omitempty"`
	Timeout   Duration `toml:"timeout,omitempty"`
	CacheSize int      `toml:"cache_size,omitempty"`
}

type FunctionsConfig struct {
	Disabled []string `toml:"disabled,omitempty"`
}

// Duration reads TOML strings such as "5s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func parseConfig(f io.Reader) (*Config, error) {
	var out Config
	md, err := toml.NewDecoder(f).Decode(&out)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return &out, nil
}

// LoadConfigFromFile reads a run configuration. The program file is
// resolved relative to the config file and defaults to the config's own
// name with a .k extension.
func LoadConfigFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	c, err := parseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Run.File == "" {
		parts := strings.Split(fi.Name(), ".")
		if len(parts) > 1 {
			parts = parts[:len(parts)-1]
		}
		parts = append(parts, "k")
		c.Run.File = strings.Join(parts, ".")
	}
	if !filepath.IsAbs(c.Run.File) {
		filedir := filepath.Dir(path)
		c.Run.File = filepath.Clean(filepath.Join(filedir, c.Run.File))
	}
	return c, nil
}

// ConfigForFile is the configuration used when a program is run directly,
// without a TOML file.
func ConfigForFile(path string) *Config {
	return &Config{Run: RunConfig{File: path}}
}
