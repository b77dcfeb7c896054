// Package backend invokes the external typedjinja Python tool and decodes
// its JSON-on-stdout responses.
//
// The tool is an opaque collaborator: one subprocess per request, a mode
// keyword plus positional arguments in, a single JSON value out. Every
// failure at this boundary — interpreter missing, non-zero exit, non-JSON or
// schema-invalid output — degrades to an empty result. Nothing here is fatal
// to the editor session.
package backend

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/armon/circbuf"
	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Mode is the backend operation keyword passed as the first argument.
type Mode string

// Backend modes understood by the typedjinja CLI.
const (
	ModeComplete            Mode = "complete"
	ModeSignature           Mode = "signature"
	ModeHover               Mode = "hover"
	ModeDefinition          Mode = "definition"
	ModeDiagnostics         Mode = "diagnostics"
	ModeFindMacroDefinition Mode = "find_macro_definition"
	ModeHoverMacro          Mode = "hover_macro"
)

// ErrUnavailable reports that the backend cannot run at all (interpreter or
// module not installed). Callers treat it as "no result".
var ErrUnavailable = errors.New("typedjinja backend unavailable")

// stderrTailSize bounds how much subprocess stderr is retained for logging.
const stderrTailSize = 4 << 10

// maxSpawnTries bounds retries of transient spawn failures.
const maxSpawnTries = 3

// Invoker runs one backend operation and returns raw stdout.
type Invoker interface {
	Invoke(ctx context.Context, mode Mode, args []string) ([]byte, error)
}

// PythonInvoker runs `<python> -m <module> <mode> <args...>` per invocation.
type PythonInvoker struct {
	Python  string
	Module  string
	Timeout time.Duration

	Log *logrus.Logger
}

// NewPythonInvoker returns an invoker for the given interpreter and module.
func NewPythonInvoker(python, module string, timeout time.Duration, log *logrus.Logger) *PythonInvoker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PythonInvoker{Python: python, Module: module, Timeout: timeout, Log: log}
}

// Invoke runs the backend once, retrying transient spawn failures with
// exponential backoff. The returned bytes are the raw stdout; empty output is
// returned as nil with no error.
func (p *PythonInvoker) Invoke(ctx context.Context, mode Mode, args []string) ([]byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out, err := backoff.Retry(ctx, func() ([]byte, error) {
		return p.runOnce(ctx, mode, args)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxSpawnTries))
	if err != nil {
		return nil, err
	}

	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (p *PythonInvoker) runOnce(ctx context.Context, mode Mode, args []string) ([]byte, error) {
	cmdArgs := append([]string{"-m", p.Module, string(mode)}, args...)
	cmd := exec.CommandContext(ctx, p.Python, cmdArgs...)

	var stdout bytes.Buffer
	stderr, _ := circbuf.NewBuffer(stderrTailSize)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if tail := strings.TrimSpace(stderr.String()); tail != "" {
		p.Log.WithField("mode", mode).Debugf("backend stderr: %s", tail)
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		// Interpreter not installed: no amount of retrying helps.
		return nil, backoff.Permanent(ErrUnavailable)
	case isExitError(err):
		// The tool ran and failed; its contract is to print "[]" on internal
		// errors, so a hard exit is not retryable either.
		return nil, backoff.Permanent(ErrUnavailable)
	case ctx.Err() != nil:
		return nil, backoff.Permanent(ctx.Err())
	default:
		// Transient spawn failure (resources, pipes). Worth another try.
		return nil, err
	}
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
