package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultBinary = "git"

	// CommitterName is the identity configured on repositories initialized by refstore
	CommitterName = "refstore"

	// CommitterEmail is the email configured on repositories initialized by refstore
	CommitterEmail = "refstore@local"
)

// Option configures the git adapter
type Option func(*Git)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Git) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBinary sets the git executable to run
func WithBinary(binary string) Option {
	return func(g *Git) {
		if binary != "" {
			g.binary = binary
		}
	}
}

// WithEnv adds environment variables to all git invocations, as "KEY=value"
func WithEnv(env ...string) Option {
	return func(g *Git) {
		g.env = append(g.env, env...)
	}
}

// Git runs git commands.
//
// Git holds no repository state: every operation takes the path of the repository it works on.
type Git struct {
	binary string
	env    []string
	logger *zap.Logger
}

// New git adapter
func New(opts ...Option) *Git {
	g := &Git{
		binary: defaultBinary,
		logger: zap.NewNop(),
	}
	for _, apply := range opts {
		apply(g)
	}
	return g
}

// CommandError describes a failed git invocation
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (g *Git) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, g.binary, args...) // #nosec G204
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	cmd.Env = append(cmd.Env, g.env...)
	return cmd
}

// exec runs git and returns its raw stdout, or a *CommandError
func (g *Git) exec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := g.command(ctx, dir, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t0 := time.Now()
	err := cmd.Run()
	g.logger.Debug("git",
		zap.String("dir", dir),
		zap.Strings("args", args),
		zap.Duration("duration", time.Since(t0)),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		cerr := &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		return nil, cerr
	}
	return stdout.Bytes(), nil
}

// run executes git and returns its trimmed stdout.
// Failures are reported as status.ErrVersionControlFailed.
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.exec(ctx, dir, args...)
	if err != nil {
		return "", status.ErrVersionControlFailed.Wrap(err)
	}
	return strings.TrimSpace(string(out)), nil
}

func exitCode(err error) int {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.ExitCode
	}
	return -1
}

// Available checks that the git binary can be executed
func (g *Git) Available(ctx context.Context) error {
	if _, err := g.run(ctx, "", "--version"); err != nil {
		return status.ErrVersionControlFailed.Wrapf("git is not available: %v", err)
	}
	return nil
}

// IsRepo tells if path is the top-level directory of a git repository
func (g *Git) IsRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// Init creates a repository at path. It is idempotent.
//
// A committer identity is configured on the repository when none is set locally,
// so that commits work without a global git configuration.
func (g *Git) Init(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return status.ErrVersionControlFailed.Wrap(err)
	}
	if !g.IsRepo(path) {
		if _, err := g.run(ctx, path, "init", "--quiet"); err != nil {
			return err
		}
	}
	for key, value := range map[string]string{"user.name": CommitterName, "user.email": CommitterEmail} {
		if _, err := g.exec(ctx, path, "config", "--local", "--get", key); err == nil {
			continue
		}
		if _, err := g.run(ctx, path, "config", "--local", key, value); err != nil {
			return err
		}
	}
	return nil
}

// Commit stages all changes in the repository and commits them.
//
// Files under the forced subpaths are staged even when a .gitignore excludes them.
// It returns false, and no error, when there was nothing to commit.
func (g *Git) Commit(ctx context.Context, path, message string, forced ...string) (bool, error) {
	if _, err := g.run(ctx, path, "add", "--all", "--", "."); err != nil {
		return false, err
	}
	for _, subpath := range forced {
		if _, err := os.Stat(filepath.Join(path, filepath.FromSlash(subpath))); err != nil {
			continue
		}
		if _, err := g.run(ctx, path, "add", "--all", "--force", "--", subpath); err != nil {
			return false, err
		}
	}
	_, err := g.exec(ctx, path, "diff", "--cached", "--quiet")
	switch code := exitCode(err); {
	case err == nil:
		return false, nil
	case code == 1:
	default:
		return false, status.ErrVersionControlFailed.Wrap(err)
	}
	if _, err := g.run(ctx, path, "-c", "commit.gpgsign=false", "commit", "--quiet", "--no-verify", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// HeadRevision returns the commit checked out in the repository
func (g *Git) HeadRevision(ctx context.Context, path string) (string, error) {
	return g.run(ctx, path, "rev-parse", "--verify", "HEAD^{commit}")
}

// HasCommits tells if the repository has at least one commit
func (g *Git) HasCommits(ctx context.Context, path string) bool {
	_, err := g.exec(ctx, path, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")
	return err == nil
}

// ResolveRevision resolves a tag, branch or (abbreviated) commit to a full commit id.
//
// Unknown revisions are reported as status.ErrPinNotFound.
func (g *Git) ResolveRevision(ctx context.Context, path, revision string) (string, error) {
	if revision == "" || strings.HasPrefix(revision, "-") {
		return "", status.ErrPinNotFound.For("pin", revision)
	}
	out, err := g.exec(ctx, path, "rev-parse", "--verify", "--quiet", revision+"^{commit}")
	if err != nil {
		if exitCode(err) > 0 {
			return "", status.ErrPinNotFound.For("pin", revision)
		}
		return "", status.ErrVersionControlFailed.Wrap(err)
	}
	return strings.TrimSpace(string(out)), nil
}

// HasPath tells if subpath exists in the tree of revision
func (g *Git) HasPath(ctx context.Context, path, revision, subpath string) (bool, error) {
	_, err := g.exec(ctx, path, "cat-file", "-e", revision+":"+strings.Trim(subpath, "/"))
	switch {
	case err == nil:
		return true, nil
	case exitCode(err) > 0:
		return false, nil
	default:
		return false, status.ErrVersionControlFailed.Wrap(err)
	}
}

// LastRevision returns the most recent commit touching subpath, or an empty string if none did
func (g *Git) LastRevision(ctx context.Context, path, subpath string) (string, error) {
	if !g.HasCommits(ctx, path) {
		return "", nil
	}
	return g.run(ctx, path, "log", "-1", "--format=%H", "HEAD", "--", subpath)
}

// Tag creates a tag on the current commit: annotated when a message is given, lightweight otherwise
func (g *Git) Tag(ctx context.Context, path, name, message string) error {
	if name == "" || strings.HasPrefix(name, "-") {
		return status.ErrInvalidName.For("tag", name)
	}
	if _, err := g.exec(ctx, path, "check-ref-format", "refs/tags/"+name); err != nil {
		return status.ErrInvalidName.For("tag", name)
	}
	if _, err := g.exec(ctx, path, "rev-parse", "--verify", "--quiet", "refs/tags/"+name); err == nil {
		return status.ErrAlreadyExists.For("tag", name)
	}
	args := []string{"-c", "tag.gpgsign=false", "tag"}
	if message != "" {
		args = append(args, "-a", "-m", message)
	}
	args = append(args, "--", name)
	_, err := g.run(ctx, path, args...)
	return err
}

// ListTags returns tags, most recently created first
func (g *Git) ListTags(ctx context.Context, path string) ([]string, error) {
	out, err := g.run(ctx, path, "tag", "--list", "--sort=-creatordate")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out string) []string {
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	res := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			res = append(res, line)
		}
	}
	return res
}
