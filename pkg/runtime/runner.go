package runtime

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/hpcloud/tail"
	process "github.com/mudler/go-processmanager"
	"github.com/phayes/freeport"
	"github.com/rs/zerolog/log"
)

// Config describes how runner processes are spawned.
type Config struct {
	// Bin is the runner executable hosting the inference pipelines.
	Bin string
	// Device selects where the pipeline runs ("cpu", "cuda", "cuda:1", ...).
	Device string
	// ComputeType selects the numeric precision ("float32", "float16", "int8").
	ComputeType string
	// DownloadRoot is the directory model artifacts are fetched into.
	DownloadRoot string
	// StartTimeout bounds how long a runner may take to become ready,
	// including a first-use artifact download.
	StartTimeout time.Duration
}

func (c Config) startTimeout() time.Duration {
	if c.StartTimeout > 0 {
		return c.StartTimeout
	}
	return 10 * time.Minute
}

// Runner is one sidecar process hosting exactly one inference pipeline. It
// owns all the device memory the pipeline allocated; stopping the process
// releases it.
type Runner struct {
	id      string
	address string
	proc    *process.Process
	http    *http.Client
}

// StartRunner spawns a runner for the given pipeline op and waits until it
// reports ready. The download root is flock-guarded during startup so two
// runners never fetch the same artifact concurrently.
func StartRunner(cfg Config, id, op string, extraArgs ...string) (*Runner, error) {
	port, err := freeport.GetFreePort()
	if err != nil {
		return nil, err
	}
	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	if err := os.MkdirAll(cfg.DownloadRoot, 0o750); err != nil {
		return nil, err
	}

	args := append([]string{
		"--op", op,
		"--device", cfg.Device,
		"--compute-type", cfg.ComputeType,
		"--download-root", cfg.DownloadRoot,
		"--addr", address,
	}, extraArgs...)

	log.Debug().Str("runner", id).Str("address", address).Msg("Starting runner process")

	proc := process.New(
		process.WithTemporaryStateDir(),
		process.WithName(cfg.Bin),
		process.WithArgs(args...),
		process.WithEnvironment(os.Environ()...),
	)

	// Model artifacts are downloaded on first start; serialize that window.
	lock := flock.New(filepath.Join(cfg.DownloadRoot, ".download.lock"))
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if err := proc.Run(); err != nil {
		return nil, err
	}

	log.Debug().Str("runner", id).Str("stateDir", proc.StateDir()).Msg("Runner state dir")

	r := &Runner{
		id:      id,
		address: address,
		proc:    proc,
		http:    &http.Client{},
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		proc.Stop()
	}()

	go forwardLogs(id, "stderr", proc.StderrPath())
	go forwardLogs(id, "stdout", proc.StdoutPath())

	if err := r.waitReady(cfg.startTimeout()); err != nil {
		proc.Stop()
		return nil, err
	}

	log.Debug().Str("runner", id).Str("address", address).Msg("Runner ready")
	return r, nil
}

func forwardLogs(id, stream, path string) {
	t, err := tail.TailFile(path, tail.Config{Follow: true})
	if err != nil {
		log.Debug().Str("runner", id).Msgf("Could not tail %s", stream)
		return
	}
	for line := range t.Lines {
		log.Debug().Str("runner", id).Msgf("%s %s", stream, line.Text)
	}
}

func (r *Runner) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := r.http.Get(r.url("/healthz"))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("runner %s not ready after %s", r.id, timeout)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (r *Runner) url(path string) string {
	return "http://" + r.address + path
}

// Stop terminates the runner process, releasing the device memory its
// pipeline held.
func (r *Runner) Stop() error {
	log.Debug().Str("runner", r.id).Msg("Stopping runner process")
	return r.proc.Stop()
}
