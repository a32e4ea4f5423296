package agent

import (
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/schema"
)

// Envelope holds the fields every generated response carries.
type Envelope struct {
	Model string           `json:"model"`
	Date  schema.Timestamp `json:"date"`
	Error string           `json:"error,omitempty"`
}

// Failed reports whether the backend declared it could not comply.
func (e Envelope) Failed() bool {
	return strings.TrimSpace(e.Error) != ""
}

// BusinessError describes a well-formed reply whose error field is set.
type BusinessError struct {
	Agent   string
	Model   string
	Message string
}

func (e *BusinessError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s agent (%s) declined: %s", e.Agent, e.Model, e.Message)
	}
	return fmt.Sprintf("%s agent declined: %s", e.Agent, e.Message)
}

func (e Envelope) businessErr(agent string) error {
	if !e.Failed() {
		return nil
	}
	return &BusinessError{Agent: agent, Model: e.Model, Message: strings.TrimSpace(e.Error)}
}

// TestsResult is the decoded reply of the tests agent.
type TestsResult struct {
	Envelope
	Tests []string `json:"tests"`
}

// BusinessErr returns a *BusinessError when the reply carries an error, nil otherwise.
func (r TestsResult) BusinessErr() error {
	return r.businessErr(RoleTests)
}

// WebsiteResult is the decoded reply of the website agent.
type WebsiteResult struct {
	Envelope
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// BusinessErr returns a *BusinessError when the reply carries an error, nil otherwise.
func (r WebsiteResult) BusinessErr() error {
	return r.businessErr(RoleWebsite)
}

// A non-empty error wins over any content the backend sent alongside it.
func (r *TestsResult) settle() {
	if r.Failed() {
		r.Tests = nil
	}
}

func (r *WebsiteResult) settle() {
	if r.Failed() {
		r.HTML, r.CSS, r.JS = "", "", ""
	}
}
