// Package ssh implements SSH local port forwarding for reaching a
// database server through a bastion/jump host.
//
// Design decisions:
//   - Uses golang.org/x/crypto/ssh for the SSH client.
//   - Listens on 127.0.0.1:0 so the OS picks a free local port.
//   - Key-based authentication only (with optional passphrase).
//   - Host keys are checked against ssh.known_hosts when it is set.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/DachengChen/chatdb/config"
)

// Addr is the host and port of the local tunnel endpoint.
type Addr struct {
	Host string
	Port int
}

// Tunnel forwards connections made to a local port to remoteAddr,
// as seen from the SSH server.
type Tunnel struct {
	clientConfig *ssh.ClientConfig
	sshAddr      string
	remoteAddr   string
	logger       *slog.Logger

	client   *ssh.Client
	listener net.Listener
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTunnel prepares a tunnel to remoteHost:remotePort. It does not dial.
func NewTunnel(cfg config.SSHConfig, remoteHost string, remotePort int, logger *slog.Logger) (*Tunnel, error) {
	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	hostKey, err := hostKeyCallback(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Tunnel{
		clientConfig: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: hostKey,
		},
		sshAddr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		remoteAddr: net.JoinHostPort(remoteHost, strconv.Itoa(remotePort)),
		logger:     logger,
	}, nil
}

// Start dials the SSH server and begins accepting local connections.
func (t *Tunnel) Start(ctx context.Context) (*Addr, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.sshAddr)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", t.sshAddr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, t.sshAddr, t.clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", t.sshAddr, err)
	}
	t.client = ssh.NewClient(c, chans, reqs)

	t.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.client.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}
	port := t.listener.Addr().(*net.TCPAddr).Port

	t.wg.Add(1)
	go t.acceptLoop()

	t.logger.Info("ssh tunnel up", "via", t.sshAddr, "local_port", port)
	return &Addr{Host: "127.0.0.1", Port: port}, nil
}

// Stop closes the listener, waits for forwarders and closes the SSH
// client. Safe to call more than once.
func (t *Tunnel) Stop() {
	t.stopOnce.Do(func() {
		if t.listener != nil {
			t.listener.Close()
		}
		if t.client != nil {
			// unblocks forwarders still copying
			t.client.Close()
		}
		t.wg.Wait()
	})
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Debug("ssh tunnel accept", "error", err)
			continue
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.client.Dial("tcp", t.remoteAddr)
	if err != nil {
		t.logger.Warn("ssh tunnel dial remote", "remote", t.remoteAddr, "error", err)
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}

func authMethods(cfg config.SSHConfig) ([]ssh.AuthMethod, error) {
	if cfg.KeyPath == "" {
		return nil, errors.New("no SSH authentication configured (set ssh.key_path)")
	}
	pem, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key %s: %w", cfg.KeyPath, err)
	}
	var signer ssh.Signer
	if cfg.KeyPassphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(cfg.KeyPassphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func hostKeyCallback(cfg config.SSHConfig, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if cfg.KnownHosts == "" {
		logger.Warn("ssh host key not verified; set ssh.known_hosts", "host", cfg.Host)
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(cfg.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}
	return cb, nil
}
