package theme

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Provider holds the active theme. It is built once at startup and handed
// to whatever renders with it.
type Provider struct {
	mu      sync.RWMutex
	current Theme
}

// NewProvider activates the configured theme. An empty or unknown name
// falls back to Default, logging a warning for unknown names.
func NewProvider(configured string, logger zerolog.Logger) *Provider {
	name := Name(strings.ToLower(strings.TrimSpace(configured)))
	t, ok := Lookup(name)
	if !ok {
		if name != "" {
			logger.Warn().Str("theme", configured).Str("fallback", string(Default)).Msg("unknown theme configured")
		}
		t, _ = Lookup(Default)
	}
	return &Provider{current: t}
}

func (p *Provider) Current() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Set switches the active theme. Unknown names leave it unchanged.
func (p *Provider) Set(name Name) (Theme, error) {
	t, ok := Lookup(name)
	if !ok {
		return p.Current(), fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
	return t, nil
}

// DataTheme is the value for the document's data-theme attribute.
func (p *Provider) DataTheme() string {
	return string(p.Current().Key)
}

// CSSVariables maps each color role to a --color-<role> custom property.
func (p *Provider) CSSVariables() map[string]string {
	roles := p.Current().Colors.roles()
	vars := make(map[string]string, len(roles))
	for _, r := range roles {
		vars["--color-"+r[0]] = r[1]
	}
	return vars
}

// Stylesheet renders the active palette as a :root rule.
func (p *Provider) Stylesheet() string {
	t := p.Current()
	var b strings.Builder
	fmt.Fprintf(&b, ":root[data-theme=%q] {\n", t.Key)
	for _, r := range t.Colors.roles() {
		fmt.Fprintf(&b, "  --color-%s: %s;\n", r[0], r[1])
	}
	b.WriteString("}\n")
	return b.String()
}
