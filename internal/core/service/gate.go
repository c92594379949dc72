package service

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/99minutos/storefront/internal/core/domain"
)

const (
	DefaultLoginPath  = "/login"
	DefaultDeniedPath = "/"
)

// GateRule protects every path under Prefix with a minimum role.
type GateRule struct {
	Prefix  string
	MinRole domain.Role
}

// Gate decides, from the request path and the caller's session alone,
// whether a request may proceed. It performs no I/O.
type Gate struct {
	rules      []GateRule
	loginPath  string
	deniedPath string
}

// ParseGateRules converts a prefix→role-name map (as read from the
// environment) into rules.
func ParseGateRules(m map[string]string) ([]GateRule, error) {
	rules := make([]GateRule, 0, len(m))
	for prefix, name := range m {
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("gate rule %q: %w", prefix, err)
		}
		rules = append(rules, GateRule{Prefix: prefix, MinRole: role})
	}
	return rules, nil
}

// NewGate validates rules and orders them longest prefix first. The login
// path must not itself be protected, and the denied path must be open to
// every signed-in role.
func NewGate(rules []GateRule, loginPath, deniedPath string) (*Gate, error) {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if deniedPath == "" {
		deniedPath = DefaultDeniedPath
	}

	seen := make(map[string]struct{}, len(rules))
	normalized := make([]GateRule, 0, len(rules))
	for _, r := range rules {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("gate rule %q: prefix must start with /", r.Prefix)
		}
		if !r.MinRole.Valid() {
			return nil, fmt.Errorf("gate rule %q: invalid role", r.Prefix)
		}
		p := path.Clean(r.Prefix)
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("gate rule %q: duplicate prefix", r.Prefix)
		}
		seen[p] = struct{}{}
		normalized = append(normalized, GateRule{Prefix: p, MinRole: r.MinRole})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return len(normalized[i].Prefix) > len(normalized[j].Prefix)
	})

	g := &Gate{rules: normalized, loginPath: loginPath, deniedPath: deniedPath}
	if _, protected := g.match(loginPath); protected {
		return nil, fmt.Errorf("gate: login path %q is protected", loginPath)
	}
	if rule, protected := g.match(deniedPath); protected && rule.MinRole.AtLeast(domain.RoleAdmin) {
		return nil, fmt.Errorf("gate: denied path %q requires %s", deniedPath, rule.MinRole)
	}
	return g, nil
}

// Decide applies the access table:
//
//	unprotected path            → allow
//	protected, no session       → redirect to login
//	protected, role too low     → redirect to the denied page
//	protected, role sufficient  → allow
func (g *Gate) Decide(requestPath string, sess *domain.Session) domain.Decision {
	rule, protected := g.match(requestPath)
	if !protected {
		return domain.Allow()
	}
	if sess == nil {
		return domain.RedirectTo(g.loginPath)
	}
	if !sess.Role.AtLeast(rule.MinRole) {
		return domain.RedirectTo(g.deniedPath)
	}
	return domain.Allow()
}

// Protected reports whether requestPath falls under any rule.
func (g *Gate) Protected(requestPath string) bool {
	_, ok := g.match(requestPath)
	return ok
}

func (g *Gate) match(requestPath string) (GateRule, bool) {
	p := path.Clean("/" + requestPath)
	for _, r := range g.rules {
		if underPrefix(p, r.Prefix) {
			return r, true
		}
	}
	return GateRule{}, false
}

// underPrefix matches on segment boundaries: /admin covers /admin and
// /admin/orders but not /administrator.
func underPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
