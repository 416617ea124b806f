// Package redirects parses the redirect declaration files emitted by the
// static-site build: per-locale _redirects.txt files with one
// source/target pair per line, and single-purpose index.redirect files
// whose entire content is the redirect target.
package redirects

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// BulkFileName is the reserved per-locale redirect declaration file.
const BulkFileName = "_redirects.txt"

// SingleFileName is the reserved single-redirect file; it occupies the
// key position of its directory's index.html.
const SingleFileName = "index.redirect"

// Rule is one redirect to realize in the store. FromKey is a full object
// key (prefix included); Target is either a full key or an absolute URL.
type Rule struct {
	FromKey string
	Target  string
}

// ParseError reports a malformed redirect declaration. A broken redirect
// file fails the whole run; a partial deployment of redirects is worse
// than no deployment.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// KeyFunc resolves a path from a redirect declaration into a full object
// key. Paths are relative to the directory the declaration file sits in.
type KeyFunc func(declarationRelPath string) string

// ParseFile parses a _redirects.txt file. Each non-empty, non-comment
// line is `fromPath <whitespace> toTarget`. fromPath is always resolved
// through mapKey; toTarget is resolved too unless it is absolute (a URL
// or a path starting with "/").
func ParseFile(path string, mapKey KeyFunc) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open redirect file: %w", err)
	}
	defer f.Close()

	var rules []Rule
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &ParseError{
				File: path,
				Line: lineNo,
				Msg:  fmt.Sprintf("expected 'from to', got %d fields", len(fields)),
			}
		}

		from, target := fields[0], fields[1]
		rule := Rule{FromKey: mapKey(strings.TrimPrefix(from, "/"))}
		if isAbsoluteTarget(target) {
			rule.Target = target
		} else {
			rule.Target = mapKey(target)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read redirect file: %w", err)
	}

	return rules, nil
}

// ParseIndexRedirect parses an index.redirect file: the trimmed file
// content is the target, and the source key is the directory's
// index.html (resolved by the caller through mapKey).
func ParseIndexRedirect(path string, fromKey string) (Rule, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Rule{}, fmt.Errorf("read redirect file: %w", err)
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return Rule{}, &ParseError{File: path, Line: 1, Msg: "empty redirect target"}
	}
	if strings.ContainsAny(target, " \t\n") {
		return Rule{}, &ParseError{File: path, Line: 1, Msg: "redirect target must be a single location"}
	}

	return Rule{FromKey: fromKey, Target: target}, nil
}

func isAbsoluteTarget(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "/")
}
