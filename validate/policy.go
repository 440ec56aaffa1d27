package validate

import (
	"bufio"
	_ "embed"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/version"
)

//go:embed plugins_min_versions.txt
var bundledPolicy string

// Policy maps plugin keys to the minimum version qlint supports. It is
// read-only once loaded.
type Policy struct {
	minimums map[string]version.Ordered
}

// ParsePolicy reads key=version lines. Blank lines and lines starting with
// '#' or '!' are ignored; surrounding whitespace is trimmed.
func ParsePolicy(r io.Reader) (*Policy, error) {
	p := &Policy{minimums: make(map[string]version.Ordered)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" {
			return nil, errors.Wrapf(errors.ErrInvalidPolicy, "line %d: expected key=version, got %q", lineNo, line)
		}
		minimum, err := version.Parse(value)
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidPolicy), "line %d: minimum version of %s", lineNo, key)
		}
		p.minimums[key] = minimum
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidPolicy), "failed to read minimum version policy")
	}
	return p, nil
}

var (
	defaultPolicy    *Policy
	defaultPolicyErr error
	defaultOnce      sync.Once
)

// DefaultPolicy returns the policy bundled with qlint, parsed once.
func DefaultPolicy() (*Policy, error) {
	defaultOnce.Do(func() {
		defaultPolicy, defaultPolicyErr = ParsePolicy(strings.NewReader(bundledPolicy))
		if defaultPolicyErr != nil {
			defaultPolicyErr = errors.Wrap(defaultPolicyErr, "failed to load minimum plugin versions")
		}
	})
	return defaultPolicy, defaultPolicyErr
}

// Minimum returns the minimum version required for key.
func (p *Policy) Minimum(key string) (version.Ordered, bool) {
	v, ok := p.minimums[key]
	return v, ok
}

// Keys returns the plugin keys covered by the policy in sorted order.
func (p *Policy) Keys() []string {
	keys := make([]string, 0, len(p.minimums))
	for k := range p.minimums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of plugins covered.
func (p *Policy) Len() int {
	return len(p.minimums)
}
