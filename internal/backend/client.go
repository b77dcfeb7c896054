package backend

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Client wraps an Invoker with typed, failure-absorbing accessors for each
// backend mode. A nil result from any method means "no answer", never an
// error the caller has to handle.
type Client struct {
	invoker Invoker
	log     *logrus.Logger
}

// NewClient wraps an invoker.
func NewClient(invoker Invoker, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{invoker: invoker, log: log}
}

// Complete asks for attribute completions of expr against a stub file.
func (c *Client) Complete(ctx context.Context, stubPath, expr string) []Candidate {
	raw, err := c.invoke(ctx, ModeComplete, stubPath, expr)
	if err != nil {
		return nil
	}
	return decodeCandidates(raw, c.log)
}

// Signature asks for the parameters of calling expr.
func (c *Client) Signature(ctx context.Context, stubPath, expr string) []Param {
	raw, err := c.invoke(ctx, ModeSignature, stubPath, expr)
	if err != nil {
		return nil
	}
	return decodeParams(raw, c.log)
}

// Hover asks for type and documentation of a top-level stub name.
func (c *Client) Hover(ctx context.Context, stubPath, name string) (HoverInfo, bool) {
	raw, err := c.invoke(ctx, ModeHover, stubPath, name)
	if err != nil {
		return HoverInfo{}, false
	}
	return decodeHover(raw, c.log)
}

// Definition asks for the definition site of expr.
func (c *Client) Definition(ctx context.Context, stubPath, expr string, line, col int) (DefLocation, bool) {
	raw, err := c.invoke(ctx, ModeDefinition, stubPath, expr, strconv.Itoa(line), strconv.Itoa(col))
	if err != nil {
		return DefLocation{}, false
	}
	return decodeLocation(raw, c.log)
}

// Diagnostics asks the backend to type-check a template against its stub.
func (c *Client) Diagnostics(ctx context.Context, stubPath, templatePath string) []Diag {
	raw, err := c.invoke(ctx, ModeDiagnostics, stubPath, templatePath)
	if err != nil {
		return nil
	}
	return decodeDiags(raw, c.log)
}

// FindMacroDefinition asks for the definition site of a macro in a template.
func (c *Client) FindMacroDefinition(ctx context.Context, templatePath, macroName string) (DefLocation, bool) {
	raw, err := c.invoke(ctx, ModeFindMacroDefinition, templatePath, macroName)
	if err != nil {
		return DefLocation{}, false
	}
	return decodeLocation(raw, c.log)
}

// HoverMacro asks for the signature and docstring of a macro.
func (c *Client) HoverMacro(ctx context.Context, templatePath, macroName string) (HoverInfo, bool) {
	raw, err := c.invoke(ctx, ModeHoverMacro, templatePath, macroName)
	if err != nil {
		return HoverInfo{}, false
	}
	return decodeHover(raw, c.log)
}

func (c *Client) invoke(ctx context.Context, mode Mode, args ...string) ([]byte, error) {
	raw, err := c.invoker.Invoke(ctx, mode, args)
	if err != nil {
		c.log.WithField("mode", mode).Debugf("backend invocation failed: %v", err)
		return nil, err
	}
	return raw, nil
}
