package route

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Built-in placeholder pattern aliases usable as {name:alias}.
const (
	DefaultPattern  = `[^/]+`
	SlugPattern     = `[a-z0-9]+(?:-[a-z0-9]+)*`
	IntPattern      = `[0-9]+`
	UUIDPattern     = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`
	CatchAllPattern = `.+`
)

// RestParam is the regexp group holding the unconsumed remainder of a group match.
const RestParam = "_rest"

var (
	patternAliases = map[string]string{
		"slug": SlugPattern,
		"int":  IntPattern,
		"uuid": UUIDPattern,
		"path": CatchAllPattern,
	}

	placeholderName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// Param declares a path placeholder.
type Param struct {
	Name     string
	Pattern  string
	Optional bool
}

type segment struct {
	divider string
	param   Param
	check   *regexp.Regexp
}

// Pattern is a compiled route template.
type Pattern struct {
	template     string
	segments     []segment
	tail         string
	group        bool
	alternatives []*regexp.Regexp
}

type compileConfig struct {
	group    bool
	declared map[string]Param
	known    map[string]struct{}
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// AsGroup compiles the template for a group route, adding a remainder alternative.
func AsGroup() CompileOption {
	return func(c *compileConfig) { c.group = true }
}

// WithParams declares placeholders explicitly. Declarations override what the
// template itself says about a placeholder of the same name.
func WithParams(params ...Param) CompileOption {
	return func(c *compileConfig) {
		for _, p := range params {
			c.declared[p.Name] = p
		}
	}
}

// KnownParams restricts placeholders to the given names.
func KnownParams(names ...string) CompileOption {
	return func(c *compileConfig) {
		if c.known == nil {
			c.known = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			c.known[n] = struct{}{}
		}
	}
}

// Normalize strips leading and trailing slashes.
func Normalize(path string) string {
	return strings.Trim(path, "/")
}

// Compile parses template into its ordered alternative regexps.
//
// Placeholders use {name}, {name?}, {name:pattern} or {name?:pattern}, where
// pattern is a regexp or one of the aliases slug, int, uuid and path.
// A template with M optional placeholders yields M+1 alternatives; group
// templates get one more that captures the remaining path.
func Compile(template string, opts ...CompileOption) (*Pattern, error) {
	cfg := &compileConfig{declared: make(map[string]Param)}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Pattern{template: Normalize(template), group: cfg.group}
	if err := p.parse(cfg); err != nil {
		return nil, err
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pattern) parse(cfg *compileConfig) error {
	rest := p.template
	seen := make(map[string]struct{})
	optionalSeen := false

	for {
		ps := strings.IndexByte(rest, '{')
		if ps < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return fmt.Errorf("%w: '%s'", ErrParamDelimiter, p.template)
			}
			p.tail = rest
			return nil
		}
		if strings.IndexByte(rest[:ps], '}') >= 0 {
			return fmt.Errorf("%w: '%s'", ErrParamDelimiter, p.template)
		}

		// Read to closing } taking into account nested braces of regexp quantifiers
		depth, pe := 0, -1
		for i, c := range rest[ps:] {
			if c == '{' {
				depth++
			} else if c == '}' {
				depth--
				if depth == 0 {
					pe = ps + i
					break
				}
			}
		}
		if pe < 0 {
			return fmt.Errorf("%w: '%s'", ErrParamDelimiter, p.template)
		}

		param, err := parsePlaceholder(rest[ps+1 : pe])
		if err != nil {
			return fmt.Errorf("%w in '%s'", err, p.template)
		}
		if decl, ok := cfg.declared[param.Name]; ok {
			if decl.Pattern != "" {
				param.Pattern = resolveAlias(decl.Pattern)
			}
			param.Optional = param.Optional || decl.Optional
		}
		if _, dup := seen[param.Name]; dup {
			return fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateParam, param.Name, p.template)
		}
		seen[param.Name] = struct{}{}

		if cfg.known != nil {
			if _, ok := cfg.known[param.Name]; !ok {
				return fmt.Errorf("%w: '%s' in '%s'", ErrUnknownParam, param.Name, p.template)
			}
		}

		if !p.group {
			if optionalSeen && !param.Optional {
				return fmt.Errorf("%w: '%s' in '%s'", ErrOptionalOrder, param.Name, p.template)
			}
			optionalSeen = optionalSeen || param.Optional
		}

		check, err := regexp.Compile("^(?:" + param.Pattern + ")$")
		if err != nil {
			return fmt.Errorf("%w: '%s': %v", ErrInvalidRegexp, param.Pattern, err)
		}

		p.segments = append(p.segments, segment{divider: rest[:ps], param: param, check: check})
		rest = rest[pe+1:]
	}
}

func parsePlaceholder(key string) (Param, error) {
	name, pattern, _ := strings.Cut(key, ":")
	optional := strings.HasSuffix(name, "?")
	name = strings.TrimSuffix(name, "?")

	if !placeholderName.MatchString(name) {
		return Param{}, fmt.Errorf("%w: '%s'", ErrInvalidPlaceholder, name)
	}
	return Param{Name: name, Pattern: resolveAlias(pattern), Optional: optional}, nil
}

func resolveAlias(pattern string) string {
	if pattern == "" {
		return DefaultPattern
	}
	if alias, ok := patternAliases[pattern]; ok {
		return alias
	}
	return pattern
}

// body renders the regexp source of the first n segments. When truncated, the
// divider of segment n is dropped, except that a leading literal is kept.
func (p *Pattern) body(n int) string {
	var b strings.Builder
	for i := range n {
		s := p.segments[i]
		b.WriteString(regexp.QuoteMeta(s.divider))
		b.WriteString("(?P<" + s.param.Name + ">" + s.param.Pattern + ")")
	}

	switch {
	case n == len(p.segments):
		b.WriteString(regexp.QuoteMeta(p.tail))
	case n == 0:
		b.WriteString(regexp.QuoteMeta(strings.TrimRight(p.segments[0].divider, "/")))
	}
	return b.String()
}

func (p *Pattern) compile() error {
	full := p.body(len(p.segments))
	sources := []string{"^" + full + "$"}
	for i := len(p.segments) - 1; i >= 0; i-- {
		if p.segments[i].param.Optional {
			sources = append(sources, "^"+p.body(i)+"$")
		}
	}

	// Stored in reverse generation order: shortest alternative first.
	for i, j := 0, len(sources)-1; i < j; i, j = i+1, j-1 {
		sources[i], sources[j] = sources[j], sources[i]
	}

	if p.group {
		if full == "" {
			sources = append(sources, "^(?P<"+RestParam+">.+)$")
		} else {
			sources = append(sources, "^"+full+"/(?P<"+RestParam+">.+)$")
		}
	}

	p.alternatives = make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return fmt.Errorf("%w: '%s': %v", ErrInvalidRegexp, p.template, err)
		}
		p.alternatives = append(p.alternatives, re)
	}
	return nil
}

// Template returns the normalized template.
func (p *Pattern) Template() string { return p.template }

// IsGroup reports whether the pattern was compiled for a group route.
func (p *Pattern) IsGroup() bool { return p.group }

// Params returns the declared placeholders in template order.
func (p *Pattern) Params() []Param {
	out := make([]Param, len(p.segments))
	for i, s := range p.segments {
		out[i] = s.param
	}
	return out
}

// Alternatives returns the source of each compiled alternative in match order.
func (p *Pattern) Alternatives() []string {
	out := make([]string, len(p.alternatives))
	for i, re := range p.alternatives {
		out[i] = re.String()
	}
	return out
}

// Canonical returns the template with placeholder names erased, so that two
// templates matching the same paths compare equal.
func (p *Pattern) Canonical() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteString(s.divider)
		b.WriteString("{")
		if s.param.Optional {
			b.WriteString("?")
		}
		b.WriteString(s.param.Pattern + "}")
	}
	b.WriteString(p.tail)
	return b.String()
}

// Match tries the alternatives in order against path. It returns the
// extracted parameters and, for group patterns, the unconsumed remainder.
func (p *Pattern) Match(path string) (map[string]string, string, bool) {
	path = Normalize(path)
	for _, re := range p.alternatives {
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}

		params := make(map[string]string, len(m))
		rest := ""
		for i, name := range re.SubexpNames() {
			switch name {
			case "":
			case RestParam:
				rest = m[i]
			default:
				params[name] = m[i]
			}
		}
		return params, rest, true
	}
	return nil, "", false
}

// Build expands the template with params. A missing optional placeholder
// truncates the path the same way the shorter alternatives do.
func (p *Pattern) Build(params map[string]string) (string, error) {
	var b strings.Builder
	for i, s := range p.segments {
		v, ok := params[s.param.Name]
		if !ok || v == "" {
			if !s.param.Optional {
				return "", fmt.Errorf("%w: '%s'", ErrMissingParam, s.param.Name)
			}
			if i == 0 {
				b.WriteString(strings.TrimRight(s.divider, "/"))
			}
			return b.String(), nil
		}
		if !s.check.MatchString(v) {
			return "", fmt.Errorf("%w: '%s'='%s'", ErrInvalidParamValue, s.param.Name, v)
		}

		b.WriteString(s.divider)
		b.WriteString(escapeSegment(v, s.param.Pattern == CatchAllPattern))
	}
	b.WriteString(p.tail)
	return b.String(), nil
}

func escapeSegment(v string, keepSlashes bool) string {
	if !keepSlashes {
		return url.PathEscape(v)
	}
	parts := strings.Split(v, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
