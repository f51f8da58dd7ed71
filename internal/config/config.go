// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mcscan/internal/ipv4"
	"github.com/woozymasta/mcscan/internal/logger"
	"github.com/woozymasta/mcscan/internal/vars"
	"go.uber.org/multierr"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Mode   Mode          `group:"Mode Options" env-namespace:"MCSCAN"`
	Ping   Ping          `group:"Ping Options" namespace:"ping" env-namespace:"MCSCAN_PING"`
	Scan   Scan          `group:"Scan Options" namespace:"scan" env-namespace:"MCSCAN_SCAN"`
	DNS    DNS           `group:"DNS Options" namespace:"dns" env-namespace:"MCSCAN_DNS"`
	Enum   Enum          `group:"Enumeration Options" namespace:"enum" env-namespace:"MCSCAN_ENUM"`
	GeoIP  GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MCSCAN_GEOIP"`
	Logger logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MCSCAN_LOG"`

	Args struct {
		Entries []string `positional-arg-name:"host[:port]" description:"Servers to probe"`
	} `positional-args:"yes"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Mode selects what the run does with its input.
type Mode struct {
	// betteralign:ignore

	File      string `short:"f" long:"file" env:"FILE" description:"Read servers from a file, one host[:port] per line; '#' starts a comment, an empty line ends the list"`
	Ports     int    `short:"p" long:"ports" env:"PORTS" description:"Probe this many consecutive ports on every resolved server instead of the server itself"`
	Enumerate bool   `short:"e" long:"enumerate" env:"ENUMERATE" description:"Walk the public IPv4 space and report progress"`
	JSON      bool   `short:"j" long:"json" env:"JSON" description:"Print results as JSON lines"`
}

// Ping holds Server List Ping settings.
type Ping struct {
	// betteralign:ignore

	Timeout     time.Duration `short:"t" long:"timeout" env:"TIMEOUT" description:"Connect and exchange timeout per probe" default:"1s"`
	Protocol    int32         `long:"protocol" env:"PROTOCOL" description:"Protocol version announced in the handshake" default:"769"`
	DefaultPort int           `long:"default-port" env:"DEFAULT_PORT" description:"Port used when neither SRV nor the entry names one" default:"25565"`
}

// Scan holds fan-out limits.
type Scan struct {
	// betteralign:ignore

	Concurrency int64         `short:"c" long:"concurrency" env:"CONCURRENCY" description:"Maximum probes in flight" default:"512"`
	Burst       int           `long:"burst" env:"BURST" description:"Probes submitted back to back before pacing" default:"100"`
	Pause       time.Duration `long:"pause" env:"PAUSE" description:"Time to refill one burst, 0 disables pacing" default:"50ms"`
}

// DNS holds SRV resolution settings.
type DNS struct {
	// betteralign:ignore

	Server    string        `long:"server" env:"SERVER" description:"DNS server for SRV lookups (host[:port]); system resolver when empty"`
	Timeout   time.Duration `long:"timeout" env:"TIMEOUT" description:"SRV lookup timeout" default:"2s"`
	Workers   int           `long:"workers" env:"WORKERS" description:"Concurrent SRV lookups" default:"256"`
	CacheSize int           `long:"cache-size" env:"CACHE_SIZE" description:"SRV answers kept in memory, 0 disables the cache" default:"4096"`
	CacheTTL  time.Duration `long:"cache-ttl" env:"CACHE_TTL" description:"Lifetime of a cached SRV answer" default:"10m"`
}

// Enum holds public IPv4 enumeration settings.
type Enum struct {
	// betteralign:ignore

	Workers  int           `long:"workers" env:"WORKERS" description:"Enumeration workers, 0 means one per CPU" default:"0"`
	Progress time.Duration `long:"progress" env:"PROGRESS" description:"Progress report interval, 0 disables reports" default:"5s"`
	Exclude  []string      `long:"exclude" env:"EXCLUDE" env-delim:"," description:"Extra CIDR blocks to skip"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path   string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file; country annotation is off when empty"`
	URL    string        `long:"url" env:"URL" description:"URL to download the MMDB from when missing or outdated"`
	MaxAge time.Duration `long:"max-age" env:"MAX_AGE" description:"Re-download the MMDB when older than this" default:"24h"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		if !errors.As(err, &flagsErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print(os.Stdout)
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return cfg
}

// ParseArgs parses args and the environment without exiting or validating.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, a ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, a...)...))
	}

	if c.Ping.Timeout <= 0 {
		add("ping timeout must be positive, got %s", c.Ping.Timeout)
	}
	if c.Ping.DefaultPort < 1 || c.Ping.DefaultPort > 65535 {
		add("default port %d out of range 1-65535", c.Ping.DefaultPort)
	}

	if c.Scan.Concurrency < 1 {
		add("scan concurrency must be at least 1, got %d", c.Scan.Concurrency)
	}
	if c.Scan.Burst < 1 {
		add("scan burst must be at least 1, got %d", c.Scan.Burst)
	}
	if c.Scan.Pause < 0 {
		add("scan pause must not be negative, got %s", c.Scan.Pause)
	}

	if c.DNS.Timeout <= 0 {
		add("dns timeout must be positive, got %s", c.DNS.Timeout)
	}
	if c.DNS.Workers < 1 {
		add("dns workers must be at least 1, got %d", c.DNS.Workers)
	}
	if c.DNS.CacheSize < 0 {
		add("dns cache size must not be negative, got %d", c.DNS.CacheSize)
	}
	if c.DNS.CacheSize > 0 && c.DNS.CacheTTL <= 0 {
		add("dns cache ttl must be positive, got %s", c.DNS.CacheTTL)
	}

	if c.Enum.Workers < 0 {
		add("enumeration workers must not be negative, got %d", c.Enum.Workers)
	}
	if c.Enum.Progress < 0 {
		add("enumeration progress interval must not be negative, got %s", c.Enum.Progress)
	}
	for _, cidr := range c.Enum.Exclude {
		if _, err := ipv4.ParseCIDR(cidr); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: exclude: %w", ErrInvalid, err))
		}
	}

	if c.GeoIP.URL != "" && c.GeoIP.Path == "" {
		add("geoip url needs a geoip path to store the database")
	}

	if c.Logger.Format != "" && c.Logger.Format != "console" && c.Logger.Format != "json" {
		add("log format must be console or json, got %q", c.Logger.Format)
	}

	switch {
	case c.Mode.Enumerate && c.Mode.Ports > 0:
		add("--enumerate and --ports are mutually exclusive")
	case c.Mode.Ports < 0 || c.Mode.Ports > 65535:
		add("port count %d out of range 1-65535", c.Mode.Ports)
	case !c.Mode.Enumerate && c.Mode.File == "" && len(c.Args.Entries) == 0:
		add("no servers given; pass host[:port] arguments or --file")
	}

	return errs
}
