package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Transaction is a named, ordered sequence of recorded request/response pairs.
// The cursor starts at 1 and maps to the files {n}_request.json and
// {n}_response.json inside the transaction directory.
//
// A Transaction is not safe for concurrent use; the policy owning it
// serializes access.
type Transaction struct {
	name   string
	dir    string
	number int
}

// NewTransaction returns a transaction rooted at root. Hierarchical names such
// as "TestSecrets/get" map to nested directories.
func NewTransaction(root, name string) (*Transaction, error) {
	dir, err := transactionDir(root, name)
	if err != nil {
		return nil, err
	}
	return &Transaction{name: name, dir: dir, number: 1}, nil
}

// Name returns the transaction name.
func (t *Transaction) Name() string {
	return t.name
}

// FilePath resolves the directory holding the transaction fixtures. With
// create set the directory is made if needed; otherwise a missing directory
// is an error.
func (t *Transaction) FilePath(create bool) (string, error) {
	if create {
		if err := os.MkdirAll(t.dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create transaction directory: %w", err)
		}
		return t.dir, nil
	}

	info, err := os.Stat(t.dir)
	if err != nil {
		return "", fmt.Errorf("%w: transaction %q: %w", ErrMockFramework, t.name, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: transaction %q: %s is not a directory", ErrMockFramework, t.name, t.dir)
	}
	return t.dir, nil
}

// Number returns the current cursor value.
func (t *Transaction) Number() int {
	return t.number
}

// IncrementNumber advances the cursor to the next step.
func (t *Transaction) IncrementNumber() {
	t.number++
}

// Reset moves the cursor back to the first step.
func (t *Transaction) Reset() {
	t.number = 1
}

// StepPaths returns the request and response fixture paths for step n.
func (t *Transaction) StepPaths(n int) (string, string, error) {
	dir, err := t.FilePath(false)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%d_request.json", n)),
		filepath.Join(dir, fmt.Sprintf("%d_response.json", n)), nil
}

// LoadStep reads the fixtures of the current step.
func (t *Transaction) LoadStep(ctx context.Context) (*Request, *Response, error) {
	return t.Load(ctx, t.number)
}

// Load reads and parses the fixtures of step n.
func (t *Transaction) Load(ctx context.Context, n int) (*Request, *Response, error) {
	reqPath, respPath, err := t.StepPaths(n)
	if err != nil {
		return nil, nil, err
	}

	reqData, err := t.readFixture(ctx, reqPath, n)
	if err != nil {
		return nil, nil, err
	}
	req, err := DecodeRequest(t.subject(n, "request"), reqData)
	if err != nil {
		return nil, nil, err
	}

	respData, err := t.readFixture(ctx, respPath, n)
	if err != nil {
		return nil, nil, err
	}
	resp, err := DecodeResponse(t.subject(n, "response"), respData)
	if err != nil {
		return nil, nil, err
	}

	return req, resp, nil
}

// SaveStep writes req and resp as the fixtures of the current step. The
// cursor is left unchanged.
func (t *Transaction) SaveStep(req *Request, resp *Response) error {
	if _, err := t.FilePath(true); err != nil {
		return err
	}
	reqPath := filepath.Join(t.dir, fmt.Sprintf("%d_request.json", t.number))
	respPath := filepath.Join(t.dir, fmt.Sprintf("%d_response.json", t.number))

	if err := writeFixture(reqPath, req); err != nil {
		return err
	}
	return writeFixture(respPath, resp)
}

// HasStep reports whether a request fixture exists for step n.
func (t *Transaction) HasStep(n int) bool {
	reqPath := filepath.Join(t.dir, fmt.Sprintf("%d_request.json", n))
	_, err := os.Stat(reqPath)
	return err == nil
}

// Steps counts the contiguous recorded steps starting at 1.
func (t *Transaction) Steps() (int, error) {
	if _, err := t.FilePath(false); err != nil {
		return 0, err
	}
	n := 0
	for t.HasStep(n + 1) {
		n++
	}
	return n, nil
}

// Truncate removes the fixtures of step from and every later step. A missing
// transaction directory is not an error.
func (t *Transaction) Truncate(from int) error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read transaction directory: %w", err)
	}
	for _, e := range entries {
		n, _, ok := ParseStepFile(e.Name())
		if !ok || n < from || !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(t.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove stale fixture: %w", err)
		}
	}
	return nil
}

var stepFileName = regexp.MustCompile(`^([1-9][0-9]*)_(request|response)\.json$`)

// ParseStepFile splits a fixture file name such as "3_request.json" into its
// step number and kind ("request" or "response").
func ParseStepFile(name string) (int, string, bool) {
	m := stepFileName.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

func (t *Transaction) subject(n int, kind string) string {
	return fmt.Sprintf("%s step %d %s", t.name, n, kind)
}

func (t *Transaction) readFixture(ctx context.Context, path string, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: transaction %q step %d: %w", ErrFixtureNotFound, t.name, n, err)
		}
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return data, nil
}

func writeFixture(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}
	return nil
}

// transactionDir maps a transaction name onto a directory below root.
func transactionDir(root, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty transaction name", ErrMockFramework)
	}
	parts := strings.Split(filepath.ToSlash(name), "/")
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, root)
	for _, part := range parts {
		if part == ".." {
			return "", fmt.Errorf("%w: transaction name %q escapes the recordings directory", ErrMockFramework, name)
		}
		if !safeForFilename(part) {
			return "", fmt.Errorf("%w: malformed transaction name %q: components may only use letters, digits, '-' and '_'", ErrMockFramework, name)
		}
		clean = append(clean, part)
	}
	return filepath.Join(clean...), nil
}

// safeForFilename reports whether s is a non-empty name made of characters
// every file system keeps as is. Names are used verbatim, so two different
// transactions never share a directory.
func safeForFilename(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
