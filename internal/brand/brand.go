// Package brand guesses the server software behind a status response from
// its advertised version name.
package brand

import (
	"slices"
	"strings"

	"github.com/woozymasta/mcscan/internal/protocol"
	"golang.org/x/mod/semver"
)

const (
	// Vanilla labels servers whose version name is a plain release number.
	Vanilla = "Vanilla"

	// Unknown labels servers that advertise no version at all.
	Unknown = "unknown"
)

var (
	defaultBrands = []string{
		"CraftBukkit", "Paper", "Pufferfish", "Purpur", "Spigot", "Tuinity",
		"Forge",
	}

	defaultProxies = []string{
		"BungeeCord", "FlameCord", "Travertine", "Velocity", "Waterfall", "XCord",
	}
)

// Type describes a classified server.
type Type struct {
	Brand   string `json:"brand"`
	ModType string `json:"mod_type,omitempty"`
	Proxy   bool   `json:"proxy,omitempty"`
}

// Modded reports whether the server advertised a mod loader.
func (t Type) Modded() bool {
	return t.ModType != ""
}

func (t Type) String() string {
	var b strings.Builder
	b.WriteString(t.Brand)
	if t.Proxy {
		b.WriteString(" (proxy)")
	}
	if t.Modded() {
		b.WriteString(" (mod ")
		b.WriteString(t.ModType)
		b.WriteString(")")
	}
	return b.String()
}

// Classifier matches version names against known brand and proxy names.
// Its tables are never modified after construction.
type Classifier struct {
	brands  []string
	proxies []string
}

// New builds a classifier over the given names. Matching is a case
// insensitive substring search in table order.
func New(brands, proxies []string) *Classifier {
	return &Classifier{
		brands:  slices.Clone(brands),
		proxies: slices.Clone(proxies),
	}
}

// Default returns a classifier for the well known server and proxy brands.
func Default() *Classifier {
	return New(defaultBrands, defaultProxies)
}

// Brands returns a copy of the brand table.
func (c *Classifier) Brands() []string { return slices.Clone(c.brands) }

// Proxies returns a copy of the proxy table.
func (c *Classifier) Proxies() []string { return slices.Clone(c.proxies) }

// MatchBrand returns the first brand contained in version.
func (c *Classifier) MatchBrand(version string) (string, bool) {
	return match(c.brands, version)
}

// MatchProxy returns the first proxy contained in version.
func (c *Classifier) MatchProxy(version string) (string, bool) {
	return match(c.proxies, version)
}

// Guess classifies a status. The label is the matched brand, else the
// matched proxy, else Vanilla for a bare release number, else the version
// name itself, else Unknown.
func (c *Classifier) Guess(status *protocol.Status) Type {
	var t Type
	if status == nil {
		t.Brand = Unknown
		return t
	}
	if status.ModInfo != nil {
		t.ModType = status.ModInfo.Type
	}
	if status.Version == nil || status.Version.Name == "" {
		t.Brand = Unknown
		return t
	}

	name := status.Version.Name
	proxy, isProxy := c.MatchProxy(name)
	t.Proxy = isProxy

	switch b, ok := c.MatchBrand(name); {
	case ok:
		t.Brand = b
	case isProxy:
		t.Brand = proxy
	case IsRelease(name):
		t.Brand = Vanilla
	default:
		t.Brand = name
	}

	return t
}

// IsRelease reports whether name is a plain release number such as
// "1.20" or "1.21.4", which only unmodified servers advertise.
func IsRelease(name string) bool {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, ".") {
		return false
	}

	v := "v" + name
	return semver.IsValid(v) &&
		semver.Prerelease(v) == "" &&
		semver.Build(v) == "" &&
		semver.Major(v) == "v1"
}

func match(table []string, version string) (string, bool) {
	lower := strings.ToLower(version)
	for _, name := range table {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}
