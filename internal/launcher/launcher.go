// Package launcher starts the API server as a child process and supervises it.
//
// Signals received by the launcher (SIGINT, SIGTERM, SIGHUP) are forwarded to the child.
// When the launcher's context is cancelled the child is asked to stop with SIGTERM and killed
// if it is still running after the stop timeout.
// The launcher exits with the child's exit code (128+n when the child was terminated by signal n).
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ForwardedSignals are the signals passed on to the child process
var ForwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// readyPollInterval is the delay between requests to the ready URL
const readyPollInterval = 250 * time.Millisecond

// Config describes the child process
type Config struct {
	Binary string
	Args   []string
	Dir    string

	// Env is added to the launcher's environment (and overrides variables of the same name)
	Env map[string]string

	// Stdout and Stderr receive the child's output. Default to the launcher's stdout and stderr.
	Stdout io.Writer
	Stderr io.Writer

	// StopTimeout is how long the child has to exit after SIGTERM before it is killed
	StopTimeout time.Duration

	// ReadyURL is polled until it returns 200 (optional)
	ReadyURL     string
	ReadyTimeout time.Duration

	// Signals overrides the source of forwarded signals. When nil the launcher subscribes to ForwardedSignals.
	Signals <-chan os.Signal
}

// Launcher runs one child process
type Launcher struct {
	cfg    Config
	logger *slog.Logger
	client *http.Client
}

// New validates the configuration and creates a Launcher
func New(cfg Config, logger *slog.Logger) (*Launcher, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}
	if cfg.StopTimeout <= 0 {
		return nil, fmt.Errorf("stop timeout must be greater than 0")
	}
	if cfg.ReadyURL != "" && cfg.ReadyTimeout <= 0 {
		return nil, fmt.Errorf("ready timeout must be greater than 0 when a ready URL is set")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	return &Launcher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: readyPollInterval * 4},
	}, nil
}

// Run starts the child and blocks until it exits. It returns the child's exit code.
// err is only set when the child could not be started or waited for; a non-zero exit is not an error.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	// #nosec G204 -- the binary and arguments come from the launcher configuration
	cmd := exec.Command(l.cfg.Binary, l.cfg.Args...)
	cmd.Dir = l.cfg.Dir
	cmd.Env = l.environ()
	cmd.Stdout = l.cfg.Stdout
	cmd.Stderr = l.cfg.Stderr

	signals := l.cfg.Signals
	if signals == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, ForwardedSignals...)
		defer signal.Stop(ch)
		signals = ch
	}

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", l.cfg.Binary, err)
	}

	l.logger.Info("server process started",
		slog.String("binary", l.cfg.Binary),
		slog.Int("pid", cmd.Process.Pid))

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()

	var g errgroup.Group
	if l.cfg.ReadyURL != "" {
		g.Go(func() error {
			l.waitReady(pollCtx)
			return nil
		})
	}

	ctxDone := ctx.Done()
	var killTimer *time.Timer
	var killC <-chan time.Time

	for {
		select {
		case err := <-waitErr:
			stopPolling()
			_ = g.Wait()
			if killTimer != nil {
				killTimer.Stop()
			}
			return l.exitCode(cmd, err)

		case sig, ok := <-signals:
			if !ok {
				// closed by the caller, stop forwarding
				signals = nil
				continue
			}
			if sig == nil {
				continue
			}
			l.logger.Info("forwarding signal", slog.String("signal", sig.String()))
			if err := cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
				l.logger.Warn("failed to forward signal",
					slog.String("signal", sig.String()),
					slog.String("error", err.Error()))
			}

		case <-ctxDone:
			ctxDone = nil
			l.logger.Info("stopping server process", slog.Duration("stop_timeout", l.cfg.StopTimeout))
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
				l.logger.Warn("failed to send SIGTERM", slog.String("error", err.Error()))
			}
			killTimer = time.NewTimer(l.cfg.StopTimeout)
			killC = killTimer.C

		case <-killC:
			killC = nil
			l.logger.Warn("server process did not stop in time - killing it")
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				l.logger.Error("failed to kill server process", slog.String("error", err.Error()))
			}
		}
	}
}

func (l *Launcher) exitCode(cmd *exec.Cmd, err error) (int, error) {
	state := cmd.ProcessState
	if state == nil {
		return 1, fmt.Errorf("failed to wait for %s: %w", l.cfg.Binary, err)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// the process exited but copying its output failed
		l.logger.Warn("server output error", slog.String("error", err.Error()))
	}

	code := state.ExitCode()
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		code = 128 + int(status.Signal())
		l.logger.Info("server process terminated by signal",
			slog.String("signal", status.Signal().String()),
			slog.Int("exit_code", code))
		return code, nil
	}

	l.logger.Info("server process exited", slog.Int("exit_code", code))
	return code, nil
}

// environ returns the launcher's environment plus the overrides.
// exec.Cmd uses the last value when a variable is repeated.
func (l *Launcher) environ() []string {
	env := os.Environ()

	keys := make([]string, 0, len(l.cfg.Env))
	for k := range l.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+l.cfg.Env[k])
	}
	return env
}

// waitReady polls the ready URL. Not becoming ready is logged, the child keeps running.
func (l *Launcher) waitReady(ctx context.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, l.cfg.ReadyTimeout)
	defer cancel()
	defer l.client.CloseIdleConnections()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if l.ready(ctx) {
			l.logger.Info("server ready",
				slog.String("url", l.cfg.ReadyURL),
				slog.Duration("elapsed", time.Since(start)))
			return
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				l.logger.Warn("server did not become ready in time",
					slog.String("url", l.cfg.ReadyURL),
					slog.Duration("ready_timeout", l.cfg.ReadyTimeout))
			}
			return
		case <-ticker.C:
		}
	}
}

func (l *Launcher) ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.ReadyURL, nil)
	if err != nil {
		return false
	}
	// #nosec G704 -- the ready URL comes from the launcher configuration
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
