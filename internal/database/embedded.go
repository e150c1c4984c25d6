package database

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/xelth-com/eckshelf/internal/config"
)

const (
	embeddedPassword = "postgres"
	pollInterval     = 500 * time.Millisecond
)

// embeddedServer runs the bundled PostgreSQL out of a local data directory
type embeddedServer struct {
	dir  string
	port int
	log  *slog.Logger
	pg   *embeddedpostgres.EmbeddedPostgres
}

func newEmbeddedServer(cfg config.DatabaseConfig, log *slog.Logger) *embeddedServer {
	return &embeddedServer{dir: cfg.EmbeddedDir, port: int(cfg.EmbeddedPort), log: log}
}

// start reclaims the data directory from a crashed run, waits for the port
// and boots the server. The returned config points at the running instance.
func (e *embeddedServer) start(cfg config.DatabaseConfig) (config.DatabaseConfig, error) {
	e.reclaim()
	if err := e.waitForPort(6); err != nil {
		return cfg, err
	}

	e.pg = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(e.dir).
		Port(uint32(e.port)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))
	if err := e.pg.Start(); err != nil {
		e.pg = nil
		return cfg, fmt.Errorf("failed to start embedded database: %w", err)
	}
	e.log.Info("embedded PostgreSQL started", "port", e.port, "data_dir", e.dir)

	cfg.Host = "localhost"
	cfg.Port = strconv.Itoa(e.port)
	cfg.Password = embeddedPassword
	return cfg, nil
}

func (e *embeddedServer) stop() {
	if e == nil || e.pg == nil {
		return
	}
	e.log.Info("stopping embedded PostgreSQL")
	if err := e.pg.Stop(); err != nil {
		e.log.Warn("embedded PostgreSQL stop failed", "error", err)
	}
	e.pg = nil
}

func (e *embeddedServer) pidFile() string {
	return filepath.Join(e.dir, "postmaster.pid")
}

// postmasterPID reads the first line of postmaster.pid
func postmasterPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	first, _, _ := strings.Cut(string(data), "\n")
	return strconv.Atoi(strings.TrimSpace(first))
}

func processAlive(p *os.Process) bool {
	return p.Signal(syscall.Signal(0)) == nil
}

// reclaim removes a stale postmaster.pid, stopping the process it names if
// that is still running
func (e *embeddedServer) reclaim() {
	path := e.pidFile()
	pid, err := postmasterPID(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			e.log.Warn("unreadable postmaster.pid", "path", path, "error", err)
		}
		return
	}
	defer os.Remove(path)

	proc, err := os.FindProcess(pid)
	if err != nil || !processAlive(proc) {
		e.log.Info("removing stale postmaster.pid", "pid", pid)
		return
	}

	e.log.Warn("stopping orphaned PostgreSQL process", "pid", pid)
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		e.log.Warn("SIGTERM failed", "pid", pid, "error", err)
	}
	for i := 0; i < 10; i++ {
		time.Sleep(pollInterval)
		if !processAlive(proc) {
			return
		}
	}
	e.log.Warn("orphaned PostgreSQL ignored SIGTERM, killing", "pid", pid)
	_ = proc.Kill()
	time.Sleep(pollInterval)
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// waitForPort polls until nothing listens on the embedded port
func (e *embeddedServer) waitForPort(attempts int) error {
	for i := 0; portInUse(e.port); i++ {
		if i == attempts {
			return fmt.Errorf("port %d is still in use by another process", e.port)
		}
		if i == 0 {
			e.log.Warn("embedded port in use, waiting for release", "port", e.port)
		}
		time.Sleep(pollInterval)
	}
	return nil
}
