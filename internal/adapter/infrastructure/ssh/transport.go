// Package ssh provides a Transport adapter that runs switchport CLI commands over SSH.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/port"
	"golang-switchport/internal/types"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasttemplate"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort    = 22
	defaultTimeout = 15 * time.Second

	// Template placeholders
	TmplInterface = "interface"
	TmplArgs      = "args"
)

// Commands holds the command line template of each operation.
type Commands struct {
	List   string `yaml:"list,omitempty" toml:"list,omitempty"`
	Get    string `yaml:"get,omitempty" toml:"get,omitempty"`
	Create string `yaml:"create,omitempty" toml:"create,omitempty"`
	Update string `yaml:"update,omitempty" toml:"update,omitempty"`
	Delete string `yaml:"delete,omitempty" toml:"delete,omitempty"`
}

// DefaultCommands returns the templates of the device switchport CLI.
func DefaultCommands() Commands {
	return Commands{
		List:   "switchport show --all --json",
		Get:    "switchport show {{interface}} --json",
		Create: "switchport create {{interface}}{{args}} --json",
		Update: "switchport set {{interface}}{{args}} --json",
		Delete: "switchport delete {{interface}} --json",
	}
}

// withDefaults fills every empty template from DefaultCommands.
func (c Commands) withDefaults() Commands {
	d := DefaultCommands()
	if c.List == "" {
		c.List = d.List
	}
	if c.Get == "" {
		c.Get = d.Get
	}
	if c.Create == "" {
		c.Create = d.Create
	}
	if c.Update == "" {
		c.Update = d.Update
	}
	if c.Delete == "" {
		c.Delete = d.Delete
	}
	return c
}

// Config represents the SSH transport configuration.
type Config struct {
	Host                  string   `yaml:"host" toml:"host" validate:"required"`
	Port                  int      `yaml:"port,omitempty" toml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User                  string   `yaml:"user" toml:"user" validate:"required"`
	Password              string   `yaml:"password,omitempty" toml:"password,omitempty"`
	PrivateKey            string   `yaml:"private_key,omitempty" toml:"private_key,omitempty"`
	Passphrase            string   `yaml:"passphrase,omitempty" toml:"passphrase,omitempty"`
	KnownHosts            string   `yaml:"known_hosts,omitempty" toml:"known_hosts,omitempty"`
	InsecureIgnoreHostKey bool     `yaml:"insecure_ignore_host_key,omitempty" toml:"insecure_ignore_host_key,omitempty"`
	Timeout               string   `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Commands              Commands `yaml:"commands,omitempty" toml:"commands,omitempty"`
}

// Address returns host:port.
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// DialTimeout parses Timeout, falling back to the default.
func (c Config) DialTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid ssh timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// Transport implements the Transport port over one SSH connection with a session per command.
type Transport struct {
	client    *gossh.Client
	templates map[types.Operation]*fasttemplate.Template
	logger    *logrus.Entry
}

// Ensure Transport implements the Transport port
var _ port.Transport = (*Transport)(nil)

// NewTransport dials the device and authenticates.
func NewTransport(ctx context.Context, cfg Config, files port.FileManager) (*Transport, error) {
	templates, err := compileTemplates(cfg.Commands.withDefaults())
	if err != nil {
		return nil, err
	}

	sshConfig, err := clientConfig(cfg, files)
	if err != nil {
		return nil, err
	}

	logger := logging.WithComponent("ssh").WithField("host", cfg.Address())
	logger.Debug("Connecting to device")

	dialer := net.Dialer{Timeout: sshConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Address(), err)
	}
	// The handshake honours the dial timeout as well
	_ = conn.SetDeadline(time.Now().Add(sshConfig.Timeout))
	c, chans, reqs, err := gossh.NewClientConn(conn, cfg.Address(), sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", cfg.Address(), err)
	}
	_ = conn.SetDeadline(time.Time{})

	logger.Info("Connected to device")
	return &Transport{
		client:    gossh.NewClient(c, chans, reqs),
		templates: templates,
		logger:    logger,
	}, nil
}

func clientConfig(cfg Config, files port.FileManager) (*gossh.ClientConfig, error) {
	timeout, err := cfg.DialTimeout()
	if err != nil {
		return nil, err
	}

	var auth []gossh.AuthMethod
	if cfg.PrivateKey != "" {
		signer, err := loadSigner(cfg.PrivateKey, cfg.Passphrase, files)
		if err != nil {
			return nil, err
		}
		auth = append(auth, gossh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, gossh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh authentication method configured for %s", cfg.User)
	}

	callback, err := hostKeyCallback(cfg, files)
	if err != nil {
		return nil, err
	}

	return &gossh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: callback,
		Timeout:         timeout,
	}, nil
}

func loadSigner(keyPath, passphrase string, files port.FileManager) (gossh.Signer, error) {
	pem, err := files.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	var signer gossh.Signer
	if passphrase != "" {
		signer, err = gossh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	} else {
		signer, err = gossh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", keyPath, err)
	}
	return signer, nil
}

func hostKeyCallback(cfg Config, files port.FileManager) (gossh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		logging.WithComponent("ssh").Warn("Host key verification disabled")
		return gossh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHosts
	if path == "" {
		path = "~/.ssh/known_hosts"
	}
	expanded, err := files.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if !files.FileExists(expanded) {
		return nil, fmt.Errorf("known_hosts file %s not found; connect once with ssh or set insecure_ignore_host_key", expanded)
	}
	callback, err := knownhosts.New(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", expanded, err)
	}
	return callback, nil
}

func compileTemplates(c Commands) (map[types.Operation]*fasttemplate.Template, error) {
	sources := map[types.Operation]string{
		types.OpList:   c.List,
		types.OpGet:    c.Get,
		types.OpCreate: c.Create,
		types.OpUpdate: c.Update,
		types.OpDelete: c.Delete,
	}
	templates := make(map[types.Operation]*fasttemplate.Template, len(sources))
	for op, src := range sources {
		t, err := fasttemplate.NewTemplate(src, "{{", "}}")
		if err != nil {
			return nil, fmt.Errorf("invalid %s command template %q: %w", op, src, err)
		}
		templates[op] = t
	}
	return templates, nil
}

// CommandLine renders the shell command line sent for cmd.
func (t *Transport) CommandLine(cmd types.Command) (string, error) {
	return render(t.templates, cmd)
}

func render(templates map[types.Operation]*fasttemplate.Template, cmd types.Command) (string, error) {
	tmpl, ok := templates[cmd.Operation]
	if !ok {
		return "", fmt.Errorf("no command template for operation %q", cmd.Operation)
	}

	var args string
	if flags := cmd.Flags(); len(flags) > 0 {
		args = " " + shellescape.QuoteCommand(flags)
	}
	var iface string
	if cmd.InterfaceID != "" {
		iface = shellescape.Quote(cmd.InterfaceID)
	}

	return tmpl.ExecuteString(map[string]interface{}{
		TmplInterface: iface,
		TmplArgs:      args,
	}), nil
}

// Execute runs cmd in a fresh session. A non-zero exit status is reported in the reply, not as an error.
func (t *Transport) Execute(ctx context.Context, cmd types.Command) (types.Reply, error) {
	line, err := t.CommandLine(cmd)
	if err != nil {
		return types.Reply{}, err
	}

	session, err := t.client.NewSession()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	t.logger.WithField("command", line).Debug("Running remote command")

	done := make(chan error, 1)
	go func() {
		done <- session.Run(line)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		// Closing the session unblocks Run
		session.Close()
		<-done
		return types.Reply{Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	case runErr = <-done:
	}

	reply := types.Reply{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return reply, nil
	}

	var exitErr *gossh.ExitError
	if errors.As(runErr, &exitErr) {
		reply.ExitStatus = exitErr.ExitStatus()
		return reply, nil
	}
	return reply, fmt.Errorf("remote command %q failed: %w", line, runErr)
}

// Close closes the SSH connection.
func (t *Transport) Close() error {
	if t.client == nil {
		return nil
	}
	if err := t.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close ssh connection: %w", err)
	}
	return nil
}
