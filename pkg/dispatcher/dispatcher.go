// Package dispatcher implements the Command Dispatcher (C9): for a
// Command resolved by the Command Loader (pkg/commands), it gates on the
// workdir's trust state, loads the dynamic environment for the command's
// source directory, and executes it under one of three models depending
// on where the command came from (spec.md §4.9).
package dispatcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/commands"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/constants"
	"github.com/omnicli/omni/pkg/envloader"
	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("dispatcher:exec")

// Options carries what Dispatch needs beyond the resolved Command and
// residual argv: the cache store (trust gate), the workdir id the
// command is running against, and the template context a config command
// needs to render its `run` string.
type Options struct {
	Store       *cache.Store
	WorkdirID   string
	Template    config.TemplateContext
	CurrentEnv  map[string]string
	EnvVersion  cache.EnvVersion
	TrustPrompt bool // if false, decline instead of prompting when untrusted
}

// Dispatch executes cmd with residualArgv, per spec.md §4.9's three
// execution models. For SourceBuiltin, it just calls cmd.BuiltinRun
// directly without any of the trust/env machinery below, since built-ins
// are trusted by construction.
func Dispatch(ctx context.Context, cmd commands.Command, residualArgv []string, opts Options) error {
	if cmd.Source == commands.SourceBuiltin {
		if cmd.BuiltinRun == nil {
			return fmt.Errorf("builtin command %q has no implementation wired", cmd.Name)
		}
		return cmd.BuiltinRun(residualArgv)
	}

	if err := gateTrust(opts.Store, opts.WorkdirID, opts.TrustPrompt); err != nil {
		return err
	}

	diff := envloader.ComputeApply(opts.EnvVersion, opts.CurrentEnv)
	env := applyDiff(opts.CurrentEnv, diff)
	env[constants.SubcommandEnv] = cmd.Name
	env[constants.CwdEnv] = opts.CurrentEnv["PWD"]

	switch cmd.Source {
	case commands.SourcePath:
		return execPath(cmd, residualArgv, env)
	case commands.SourceConfig:
		return execConfig(ctx, cmd, residualArgv, opts.Template, env)
	case commands.SourceMakefile:
		return execMakefile(ctx, cmd, residualArgv, env)
	default:
		return fmt.Errorf("command %q has no dispatchable source", cmd.Name)
	}
}

// gateTrust mirrors orchestrator.gateTrust's trust check (spec.md §4.9's
// "gates on the workdir's trust state"), duplicated rather than imported
// to avoid a dispatcher -> orchestrator dependency cycle (the
// orchestrator doesn't need the dispatcher, but a future dispatcher
// command could plausibly invoke `up`, so the direction is kept
// dispatcher-independent).
func gateTrust(store *cache.Store, workdirID string, promptIfUntrusted bool) error {
	trusted, err := store.IsTrusted(workdirID)
	if err != nil {
		return err
	}
	if trusted {
		return nil
	}
	if !promptIfUntrusted {
		return fmt.Errorf("workdir %s is not trusted", workdirID)
	}
	ok, err := console.ConfirmAction(
		fmt.Sprintf("Trust %s to run its commands?", workdirID),
		"Trust", "Skip",
	)
	if err != nil || !ok {
		return fmt.Errorf("workdir %s is not trusted", workdirID)
	}
	return store.SetTrusted(workdirID)
}

func applyDiff(current map[string]string, diff envloader.Diff) map[string]string {
	out := make(map[string]string, len(current)+len(diff.ToSet))
	for k, v := range current {
		out[k] = v
	}
	for _, k := range diff.ToUnset {
		delete(out, k)
	}
	for k, v := range diff.ToSet {
		out[k] = v
	}
	out[constants.ShellOwnedVarsEnv] = envloader.EncodeShellOwnedVars(diff.OwnedVars)
	out[constants.ShellOwnedPathEnv] = envloader.EncodeShellOwnedPath(diff.OwnedPath)
	return out
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// execPath implements spec.md §4.9's "Path command": process-replacement
// exec with the residual argv, mirroring pkg/shim's own syscall.Exec
// re-entry so the dispatched command inherits the dispatcher's PID,
// signal handling, and stdio exactly as if it had been invoked directly.
func execPath(cmd commands.Command, residualArgv []string, env map[string]string) error {
	argv := append([]string{cmd.PathExec}, residualArgv...)
	return syscall.Exec(cmd.PathExec, argv, envSlice(env))
}

// execConfig implements spec.md §4.9's "Config command": render the
// `run` template with the command's context variables, then exec a
// login-shell-equivalent to run it.
func execConfig(ctx context.Context, cmd commands.Command, residualArgv []string, tmpl config.TemplateContext, env map[string]string) error {
	rendered := config.Render(cmd.RunTmpl, tmpl)
	shellPath := os.Getenv("SHELL")
	if shellPath == "" {
		shellPath = "/bin/sh"
	}
	argv := []string{shellPath, "-l", "-c", rendered, shellPath}
	argv = append(argv, residualArgv...)
	return syscall.Exec(shellPath, argv, envSlice(env))
}

// execMakefile implements spec.md §4.9's "Makefile command": spawn
// `make -f <path> <target> <args>` as a subprocess (not a process
// replacement, since `make` itself must remain the parent to manage the
// recipe's own child processes) and propagate its exit code.
func execMakefile(ctx context.Context, cmd commands.Command, residualArgv []string, env map[string]string) error {
	args := append([]string{"-f", cmd.MakeFile, cmd.MakeTarget}, residualArgv...)
	c := exec.CommandContext(ctx, "make", args...)
	c.Dir = cmd.SourceDir
	c.Env = envSlice(env)
	c.Stdin = os.Stdin

	stdout, err := c.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return err
	}
	if err := c.Start(); err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.Go(func() error { _, err := io.Copy(os.Stdout, stdout); return err })
	g.Go(func() error { _, err := io.Copy(os.Stderr, stderr); return err })
	if err := g.Wait(); err != nil {
		log.Printf("copying make output: %v", err)
	}

	if err := c.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return err
	}
	return nil
}

// ExitError carries a Makefile command's propagated exit code, per
// spec.md §4.9's "propagating exit code".
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}
