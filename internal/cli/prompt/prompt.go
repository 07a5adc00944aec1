// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

var (
	// ErrAborted is returned when the user presses Ctrl+C.
	ErrAborted = errors.New("aborted")

	// ErrPasswordMismatch is returned when the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// IsAborted reports whether err came from the user aborting a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort)
}

func wrapError(err error) error {
	if err != nil && IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Confirm asks a yes/no question defaulting to no. Answering "n" is not
// an error.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	return true, nil
}

// ConfirmWithForce skips the question when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label)
}

// Password reads a masked value.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	s, err := p.Run()
	return s, wrapError(err)
}

// PasswordWithConfirmation reads a masked value of at least minLength
// bytes twice and checks both entries match.
func PasswordWithConfirmation(label, confirmLabel string, minLength int) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(s string) error {
			return checkLength(s, minLength)
		},
	}
	password, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}

	confirm, err := Password(confirmLabel)
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

func checkLength(s string, min int) error {
	if len(s) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	return nil
}
