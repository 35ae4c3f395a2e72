// Package prompt provides the naming collaborator: when an unknown access
// point appears, the user may be asked for a friendly label. The prompt is
// optional in every sense; declining, timing out, or running headless all
// just mean no label.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Prompter asks the user to label a newly seen access point. An empty
// string with nil error means the user declined or nothing is listening.
type Prompter interface {
	PromptForLabel(ctx context.Context, displayName, identifier string) (string, error)
}

// Headless never asks and never returns a label.
type Headless struct{}

// PromptForLabel always declines.
func (Headless) PromptForLabel(ctx context.Context, displayName, identifier string) (string, error) {
	return "", nil
}

// Zenity prompts through a zenity entry dialog. The caller bounds the wait
// with the context; an expired context reads as a decline.
type Zenity struct {
	binary string
}

// Detect probes for zenity and degrades to Headless when it is missing or
// prompting is disabled.
func Detect(enabled bool) Prompter {
	if !enabled {
		return Headless{}
	}
	path, err := exec.LookPath("zenity")
	if err != nil {
		log.Printf("zenity not found, running without naming prompts")
		return Headless{}
	}
	log.Printf("Naming prompt: %s", path)
	return &Zenity{binary: path}
}

// PromptForLabel shows the entry dialog and returns the trimmed input.
func (z *Zenity) PromptForLabel(ctx context.Context, displayName, identifier string) (string, error) {
	subject := displayName
	if subject == "" {
		subject = identifier
	}

	cmd := exec.CommandContext(ctx, z.binary,
		"--entry",
		"--title", "New Network Detected",
		"--text", fmt.Sprintf("New network detected: %s\nEnter a custom name for this network:", subject),
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// Cancel button, closed dialog, or timeout. All mean "no label".
		if ctx.Err() != nil {
			log.Printf("Naming prompt for %s timed out", subject)
		}
		return "", nil
	}

	return strings.TrimSpace(out.String()), nil
}
