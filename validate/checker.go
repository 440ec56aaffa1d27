// Package validate checks that the plugins installed on an analysis server
// meet the minimum versions qlint supports.
package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/metric"
	"github.com/teranos/qlint/version"
)

// Server endpoints
const (
	InstalledPluginsPath = "/api/plugins/installed"
	PluginIndexPath      = "/deploy/plugins/index.txt"
	ServerVersionPath    = "/api/server/version"
)

// Protocols used to list installed plugins
const (
	ProtocolInstalled = "installed" // JSON web service
	ProtocolIndex     = "index"     // legacy plain-text index
)

// OKMessage is the message of a passing validation.
const OKMessage = "Plugins meet required minimum versions"

const failPrefix = "The following plugins do not meet the required minimum versions, please upgrade them: "

// installedSince is the first server version serving InstalledPluginsPath.
var installedSince = version.MustParse("5.2")

var jarVersion = regexp.MustCompile(`-(\d+(?:\.\d+)*(?:-[A-Za-z0-9]+)?)\.jar$`)

// Getter fetches a server resource.
type Getter interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
}

// InstalledPlugin describes a plugin installed on the server.
type InstalledPlugin struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Failure is an installed plugin below its minimum version.
type Failure struct {
	Plugin  InstalledPlugin
	Minimum string
}

func (f Failure) String() string {
	name := f.Plugin.Name
	if name == "" {
		name = f.Plugin.Key
	}
	return name + " (installed: " + f.Plugin.Version + ", minimum: " + f.Minimum + ")"
}

// Result is the outcome of a validation.
type Result struct {
	OK       bool
	Message  string
	Protocol string
	Failures []Failure
}

// Checker validates installed plugin versions against a Policy.
type Checker struct {
	client  Getter
	policy  *Policy
	log     *zap.SugaredLogger
	metrics *metric.Bootstrap
}

// NewChecker creates a checker using the bundled policy. Failing to load it
// is fatal.
func NewChecker(client Getter, log *zap.SugaredLogger, metrics *metric.Bootstrap) (*Checker, error) {
	policy, err := DefaultPolicy()
	if err != nil {
		return nil, err
	}
	return NewCheckerWithPolicy(client, policy, log, metrics), nil
}

// NewCheckerWithPolicy creates a checker using policy.
func NewCheckerWithPolicy(client Getter, policy *Policy, log *zap.SugaredLogger, metrics *metric.Bootstrap) *Checker {
	return &Checker{
		client:  client,
		policy:  policy,
		log:     logger.Component(log, "validate"),
		metrics: metrics,
	}
}

// Validate lists the plugins installed on a server running serverVersion
// and reports every one below its minimum. Servers from 5.2 on are queried
// through InstalledPluginsPath, older ones through PluginIndexPath. An
// unsatisfied policy is a negative Result, not an error.
func (c *Checker) Validate(ctx context.Context, serverVersion string) (Result, error) {
	server, err := version.Parse(serverVersion)
	if err != nil {
		return Result{}, errors.Wrap(err, "invalid server version")
	}

	protocol := ProtocolIndex
	if server.AtLeast(installedSince) {
		protocol = ProtocolInstalled
	}
	c.log.Debugw("Validating plugin versions",
		logger.FieldServerVersion, serverVersion,
		logger.FieldProtocol, protocol)

	var installed []InstalledPlugin
	if protocol == ProtocolInstalled {
		installed, err = c.installedPlugins(ctx)
	} else {
		installed, err = c.indexedPlugins(ctx)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Protocol: protocol, Failures: c.failures(installed)}
	res.OK = len(res.Failures) == 0
	if res.OK {
		res.Message = OKMessage
	} else {
		parts := make([]string, len(res.Failures))
		for i, f := range res.Failures {
			parts[i] = f.String()
		}
		res.Message = failPrefix + strings.Join(parts, ",")
	}

	c.recordResult(res)
	return res, nil
}

// Enforce is Validate for callers that only continue when the server is
// supported. A negative result is an ErrUnsupportedServer error whose message
// is exactly Result.Message.
func (c *Checker) Enforce(ctx context.Context, serverVersion string) error {
	res, err := c.Validate(ctx, serverVersion)
	if err != nil {
		return err
	}
	if !res.OK {
		return errors.NewUnsupportedServerError(res.Message)
	}
	return nil
}

func (c *Checker) failures(installed []InstalledPlugin) []Failure {
	var out []Failure
	for _, p := range installed {
		minimum, ok := c.policy.Minimum(p.Key)
		if !ok {
			continue
		}
		v, err := version.Parse(p.Version)
		if err == nil && v.AtLeast(minimum) {
			continue
		}
		c.log.Debugw("Plugin below minimum version",
			logger.FieldPlugin, p.Key,
			logger.FieldVersion, p.Version,
			logger.FieldMinVersion, minimum.String())
		out = append(out, Failure{Plugin: p, Minimum: minimum.String()})
	}
	return out
}

func (c *Checker) recordResult(res Result) {
	failing := make([]string, len(res.Failures))
	for i, f := range res.Failures {
		failing[i] = f.Plugin.Key
	}
	c.metrics.RecordValidation(res.Protocol, res.OK, failing)
}

func (c *Checker) installedPlugins(ctx context.Context) ([]InstalledPlugin, error) {
	body, err := c.client.Get(ctx, InstalledPluginsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list installed plugins")
	}
	defer body.Close()

	var payload struct {
		Plugins []InstalledPlugin `json:"plugins"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode installed plugins")
	}
	return payload.Plugins, nil
}

// indexedPlugins parses lines of the form
//
//	key,...,filename|hash
//
// taking the version from the jar filename. Lines without a recognizable
// version are ignored.
func (c *Checker) indexedPlugins(ctx context.Context) ([]InstalledPlugin, error) {
	body, err := c.client.Get(ctx, PluginIndexPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read plugin index")
	}
	defer body.Close()

	var out []InstalledPlugin
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		fields := splitNonEmpty(scanner.Text(), ",")
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		filename, _, _ := strings.Cut(fields[len(fields)-1], "|")

		v := JarVersion(filename)
		if v == "" {
			c.log.Debugw("Ignoring plugin index entry without version", logger.FieldPlugin, key)
			continue
		}
		out = append(out, InstalledPlugin{Key: key, Name: key, Version: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read plugin index")
	}
	return out, nil
}

// JarVersion extracts the version from a plugin jar filename such as
// "sonar-java-plugin-3.14.jar". It returns "" when there is none.
func JarVersion(filename string) string {
	m := jarVersion.FindStringSubmatch(strings.TrimSpace(filename))
	if m == nil {
		return ""
	}
	return m[1]
}

// ServerVersion asks the server for its version.
func ServerVersion(ctx context.Context, client Getter) (string, error) {
	body, err := client.Get(ctx, ServerVersionPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to query server version")
	}
	defer body.Close()

	b, err := io.ReadAll(io.LimitReader(body, 256))
	if err != nil {
		return "", errors.Wrap(err, "failed to read server version")
	}
	v := strings.TrimSpace(string(b))
	if _, err := version.Parse(v); err != nil {
		return "", errors.Wrapf(err, "server reported version %q", v)
	}
	return v, nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, f := range strings.Split(s, sep) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
