// Package prompt holds the fixed text the gateway sends to the reasoning
// engine: the system directive and one query template per operation.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Prompt is a named, fixed prompt body. Bodies use text/template syntax.
type Prompt struct {
	Name    string
	Version int
	Body    string
	Meta    map[string]string
}

// Names of the built-in prompts.
const (
	DirectiveName               = "directive"
	SearchDesignStandardsName   = "search_design_standards"
	GetArchitecturePatternsName = "get_architecture_patterns"
	GetTechnologyStandardsName  = "get_technology_standards"
	GetSecurityGuidelinesName   = "get_security_guidelines"
)

const directiveBody = "You fetch Design Standards from LeanIX using MCP tools. " +
	"Be concise and focus on the most relevant information."

var builtins = []Prompt{
	{Name: DirectiveName, Version: 1, Body: directiveBody},
	{Name: SearchDesignStandardsName, Version: 1, Body: "Search for design standards about: {{.topic}}", Meta: map[string]string{"argument": "topic"}},
	{Name: GetArchitecturePatternsName, Version: 1, Body: "Get architectural patterns and guidelines for: {{.architecture_type}}", Meta: map[string]string{"argument": "architecture_type"}},
	{Name: GetTechnologyStandardsName, Version: 1, Body: "Get technology standards and guidelines for: {{.technology}}", Meta: map[string]string{"argument": "technology"}},
	{Name: GetSecurityGuidelinesName, Version: 1, Body: "Get security guidelines and best practices for: {{.security_area}}", Meta: map[string]string{"argument": "security_area"}},
}

// ErrNotFound is returned for unknown prompt names.
var ErrNotFound = errors.New("prompt not found")

// ErrLintFailed is returned when a prompt fails lint checks.
var ErrLintFailed = errors.New("prompt failed lint checks")

// Catalog is a read-only set of parsed prompts.
type Catalog struct {
	prompts map[string]Prompt
	tmpls   map[string]*template.Template
}

// NewCatalog parses and lints ps. Later entries replace earlier ones by name.
func NewCatalog(ps ...Prompt) (*Catalog, error) {
	c := &Catalog{prompts: make(map[string]Prompt, len(ps)), tmpls: make(map[string]*template.Template, len(ps))}
	for _, p := range ps {
		if issues := Lint(p); len(issues) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", ErrLintFailed, p.Name, issues[0].Message)
		}
		t, err := template.New(p.Name).Option("missingkey=error").Parse(p.Body)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", p.Name, err)
		}
		c.prompts[p.Name] = p
		c.tmpls[p.Name] = t
	}
	return c, nil
}

var defaultCatalog = mustCatalog(builtins...)

func mustCatalog(ps ...Prompt) *Catalog {
	c, err := NewCatalog(ps...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog { return defaultCatalog }

// Directive returns the fixed system directive.
func Directive() string { return directiveBody }

// Get returns a prompt by name.
func (c *Catalog) Get(name string) (Prompt, bool) {
	p, ok := c.prompts[name]
	return p, ok
}

// Names lists prompt names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.prompts))
	for n := range c.prompts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Render executes the named template. A variable the template references
// but vars lacks is an error; the argument text itself is inserted verbatim.
func (c *Catalog) Render(name string, vars map[string]string) (string, error) {
	t, ok := c.tmpls[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Issue describes a lint finding.
type Issue struct {
	Rule    string
	Message string
}

// Lint runs basic checks on prompts.
func Lint(p Prompt) []Issue {
	var issues []Issue
	if p.Name == "" {
		issues = append(issues, Issue{Rule: "name.required", Message: "name is required"})
	}
	if strings.TrimSpace(p.Body) == "" {
		issues = append(issues, Issue{Rule: "body.required", Message: "body is empty"})
	}
	if containsSecretLike(p.Body) {
		issues = append(issues, Issue{Rule: "security.secrets", Message: "body appears to contain secrets-like content"})
	}
	return issues
}

func containsSecretLike(s string) bool {
	ls := strings.ToLower(s)
	for _, n := range []string{"aws_secret_access_key", "begin private key", "sk-", "bearer "} {
		if strings.Contains(ls, n) {
			return true
		}
	}
	return false
}
