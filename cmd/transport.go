package cmd

import (
	"context"
	"fmt"
	"os"

	"golang-switchport/internal/adapter/infrastructure/configdb"
	"golang-switchport/internal/adapter/infrastructure/file"
	"golang-switchport/internal/adapter/infrastructure/ssh"
	"golang-switchport/internal/pkg/config"
	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/port"

	"golang.org/x/term"
)

// createTransport creates the device transport selected by the config file
func createTransport(ctx context.Context, cfg *config.Config) (port.Transport, error) {
	logger := logging.WithComponent("transport").WithField("type", cfg.Transport.Type)

	switch cfg.Transport.Type {
	case config.TransportSSH:
		transport, err := ssh.NewTransport(ctx, *cfg.Transport.SSH, file.NewManagerAdapter())
		if err != nil {
			return nil, err
		}
		logger.Debug("Created SSH transport")
		return transport, nil
	case config.TransportConfigDB:
		transport, err := configdb.NewTransport(ctx, *cfg.Transport.ConfigDB)
		if err != nil {
			return nil, err
		}
		logger.Debug("Created config_db transport")
		return transport, nil
	}

	return nil, fmt.Errorf("unsupported transport type %q", cfg.Transport.Type)
}

// resolveCredentials prompts once for a missing SSH password so that later connections reuse it
func resolveCredentials(cfg *config.Config) error {
	if cfg.Transport.Type != config.TransportSSH {
		return nil
	}
	sshConfig := cfg.Transport.SSH
	if sshConfig.Password != "" || sshConfig.PrivateKey != "" {
		return nil
	}
	password, err := promptPassword(*sshConfig)
	if err != nil {
		return err
	}
	sshConfig.Password = password
	return nil
}

// promptPassword asks for the SSH password when stdin is a terminal
func promptPassword(cfg ssh.Config) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no ssh password or private key configured for %s@%s", cfg.User, cfg.Host)
	}

	fmt.Fprintf(os.Stderr, "%s@%s's password: ", cfg.User, cfg.Host)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
