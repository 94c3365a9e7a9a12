// Package clipboard writes prompt text to the host clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrWriteFailed is matched by every failed clipboard write.
var ErrWriteFailed = errors.New("clipboard write failed")

var errUnsupported = errors.New("no clipboard utility available")

// Service accepts UTF-8 text for the clipboard and reports success or failure.
type Service interface {
	Write(text string) error
}

// Error wraps the underlying clipboard failure.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("clipboard: write failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every clipboard Error as ErrWriteFailed.
func (e *Error) Is(target error) bool {
	return target == ErrWriteFailed
}

// System writes to the operating system clipboard (pbcopy, xclip, xsel,
// wl-copy or the Windows API, whichever the host provides).
type System struct{}

func (System) Write(text string) error {
	if clipboard.Unsupported {
		return &Error{Err: errUnsupported}
	}
	if err := clipboard.WriteAll(text); err != nil {
		return &Error{Err: err}
	}
	return nil
}

// Func adapts a plain function to Service.
type Func func(text string) error

func (f Func) Write(text string) error {
	if err := f(text); err != nil {
		if errors.Is(err, ErrWriteFailed) {
			return err
		}
		return &Error{Err: err}
	}
	return nil
}

// Unavailable is a Service for hosts without clipboard access.
type Unavailable struct{}

func (Unavailable) Write(string) error {
	return &Error{Err: errUnsupported}
}

// Recorder keeps every successfully written text; useful where the host
// clipboard is out of reach.
type Recorder struct {
	mu    sync.Mutex
	texts []string
	fail  error
}

func (r *Recorder) Write(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return &Error{Err: r.fail}
	}
	r.texts = append(r.texts, text)
	return nil
}

// FailWith makes subsequent writes fail with err; nil restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Texts returns every text written so far.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// Last returns the most recent text, or "" if nothing was written.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}
