// Package watcher implements the watch pipeline: filesystem events are
// debounced into batches and each settled batch triggers one serialized
// install against the configured docassemble server.
package watcher

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	godaemon "github.com/sevlyar/go-daemon"

	"github.com/jpagh/docassemblecli3/internal/dacli/daclient"
	"github.com/jpagh/docassemblecli3/internal/dacli/daemon"
	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/dacli/history"
	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
	"github.com/jpagh/docassemblecli3/internal/dacli/packaging"
	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// Config controls one watch session
type Config struct {
	Directory   string
	Server      server.Config
	Debounce    time.Duration
	Policy      packaging.Policy
	Playground  bool
	Project     string
	PidFile     string
	LogFile     string
	HistoryPath string
	DaemonMode  bool
}

// Watcher owns the watch pipeline for one package directory
type Watcher struct {
	config  Config
	client  *daclient.Client
	matcher *ignore.Matcher
	db      *history.DB

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher for the given configuration
func New(config Config) (*Watcher, error) {
	if config.Directory == "" {
		config.Directory = "."
	}
	absDir, err := filepath.Abs(config.Directory)
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to resolve watch directory")
	}
	config.Directory = absDir

	if err := packaging.Validate(config.Directory); err != nil {
		return nil, err
	}
	if config.Policy == "" {
		config.Policy = packaging.PolicyAuto
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.PidFile == "" {
		config.PidFile = daemon.DefaultPIDFile()
	}
	if config.LogFile == "" {
		config.LogFile = daemon.DefaultLogFile()
	}

	client, err := daclient.New(config.Server.APIURL, config.Server.APIKey)
	if err != nil {
		return nil, err
	}

	matcher, err := ignore.NewMatcher(config.Directory)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		config:  config,
		client:  client,
		matcher: matcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start runs the watch session. In daemon mode the process forks into
// the background and the parent returns immediately; otherwise this
// blocks until a termination signal arrives.
func (w *Watcher) Start() error {
	if w.config.DaemonMode {
		log.Info("Starting watcher in daemon mode...")
		return w.startAsDaemon()
	}
	log.Info("Starting watcher in foreground mode...")
	return w.run()
}

// startAsDaemon forks the watcher into a background process
func (w *Watcher) startAsDaemon() error {
	daemonCtx := &godaemon.Context{
		PidFileName: w.config.PidFile,
		PidFilePerm: 0644,
		LogFileName: w.config.LogFile,
		LogFilePerm: 0640,
		WorkDir:     "./",
		Umask:       027,
	}

	if godaemon.WasReborn() {
		// Child daemon process
		pid := os.Getpid()
		log.Info("Watcher daemon started (PID: %d)", pid)
		log.Info("PID file: %s", w.config.PidFile)
		log.Info("Log file: %s", w.config.LogFile)

		if err := daemon.WritePIDFile(w.config.PidFile, pid); err != nil {
			log.Error("Failed to write PID file: %v", err)
			return err
		}
		return w.run()
	}

	// Parent process forks and exits
	child, err := daemonCtx.Reborn()
	if err != nil {
		return fmt.Errorf("failed to fork daemon: %w", err)
	}
	if child != nil {
		log.Info("Watcher daemon started successfully")
		log.Info("PID: %d (saved to %s)", child.Pid, w.config.PidFile)
		log.Info("Logs: %s", w.config.LogFile)
		return nil
	}
	return fmt.Errorf("unexpected daemon state")
}

// run drives the pipeline until a termination signal arrives
func (w *Watcher) run() error {
	if w.config.HistoryPath != "" {
		db, err := history.Open(w.config.HistoryPath)
		if err != nil {
			// History is a convenience, not a requirement
			log.Warn("Install history disabled: %v", err)
		} else {
			w.db = db
			defer func() { _ = db.Close() }()
		}
	}

	source, err := NewSource(w.config.Directory)
	if err != nil {
		return err
	}

	invoker := NewInvoker(w.installOnce)
	batcher := NewBatcher(w.config.Directory, w.config.Debounce, w.matcher, invoker)

	invoker.Start(w.ctx)
	source.Start()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// Termination is the event channel closing, so the final batch
		// is flushed before the invoker winds down
		batcher.Run(context.Background(), source.Events())
	}()

	log.Info("Watching %s (debounce %s, restart policy %q)",
		w.config.Directory, w.config.Debounce, w.config.Policy)
	log.Info("Target: %s", w.describeTarget())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received %s, shutting down...", sig)

	source.Stop()
	w.wg.Wait()
	w.cancel()
	invoker.Wait()

	if w.config.DaemonMode {
		if err := os.Remove(w.config.PidFile); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove PID file: %v", err)
		}
	}

	log.Info("Watcher stopped")
	return nil
}

// Stop cancels the pipeline from another goroutine. Mostly useful in
// tests; interactive shutdown goes through signals.
func (w *Watcher) Stop() {
	w.cancel()
}

func (w *Watcher) describeTarget() string {
	if w.config.Playground {
		project := w.config.Project
		if project == "" {
			project = daclient.DefaultProject
		}
		return fmt.Sprintf("%s (playground project %q)", w.config.Server.APIURL, project)
	}
	return fmt.Sprintf("%s (package install)", w.config.Server.APIURL)
}

// installOnce packages the directory and installs it on the server. It
// runs on the invoker's goroutine, so at most one install is in flight.
func (w *Watcher) installOnce(restartRequired bool) error {
	started := time.Now()
	err := w.doInstall(restartRequired)
	w.record(restartRequired, started, err)
	if err == nil {
		log.Info("Install finished in %s", time.Since(started).Round(time.Millisecond))
	}
	return err
}

func (w *Watcher) doInstall(restartRequired bool) error {
	zipPath, meta, err := archiveToTemp(w.config.Directory, w.matcher)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(zipPath) }()

	// The batch classification only ever escalates: the server check can
	// upgrade a quiet batch to a restart, never downgrade one
	restart := w.config.Policy.Resolve(restartRequired)
	if !restart && w.config.Policy.NeedsServerCheck(meta) {
		installed, err := w.client.ListPackages()
		if err != nil {
			log.Warn("Cannot list server packages, assuming restart: %v", err)
			restart = true
		} else {
			restart = packaging.ShouldRestart(meta, installed)
		}
	}

	log.InfoH2("Installing %s (restart: %v)...", meta.Name, restart)

	if w.config.Playground {
		taskID, err := w.client.InstallToPlayground(zipPath, w.config.Project, restart)
		if err != nil {
			return err
		}
		if taskID == "" {
			// Server finished synchronously
			return nil
		}
		return w.client.WaitUntilReady(true, taskID)
	}

	taskID, err := w.client.InstallPackage(zipPath, restart)
	if err != nil {
		return err
	}
	if err := w.client.WaitUntilReady(false, taskID); err != nil {
		return err
	}
	if !restart {
		// Without a restart the interview cache still holds stale
		// copies of the changed files
		if err := w.client.ClearCache(); err != nil {
			log.Warn("Failed to clear interview cache: %v", err)
		}
	}
	return nil
}

// record writes one install outcome to the history database
func (w *Watcher) record(restart bool, started time.Time, installErr error) {
	if w.db == nil {
		return
	}
	target := "package"
	if w.config.Playground {
		project := w.config.Project
		if project == "" {
			project = daclient.DefaultProject
		}
		target = "playground:" + project
	}
	rec := history.Record{
		Server:   w.config.Server.APIURL,
		Target:   target,
		Restart:  restart,
		Success:  installErr == nil,
		Duration: time.Since(started),
	}
	if installErr != nil {
		rec.Message = installErr.Error()
	}
	if err := w.db.Record(rec); err != nil {
		log.Warn("Failed to record install history: %v", err)
	}
}

// archiveToTemp zips the package directory into a temporary file
func archiveToTemp(directory string, matcher *ignore.Matcher) (string, *packaging.Metadata, error) {
	tmp, err := os.CreateTemp("", "dapkg-*.zip")
	if err != nil {
		return "", nil, dacerrors.Wrap(err, "failed to create temporary archive")
	}
	zipPath := tmp.Name()
	_ = tmp.Close()

	meta, err := packaging.Archive(directory, zipPath, matcher)
	if err != nil {
		_ = os.Remove(zipPath)
		return "", nil, err
	}
	return zipPath, meta, nil
}
