// Package tacit provides the include-resolution and dump utilities an
// embedding host needs to run TACIT source files, mirroring the role
// lang/retro plays for the teacher's assembler: package compiler knows
// nothing about the filesystem, and package tacit supplies it.
package tacit

import (
	"os"
	"path/filepath"
)

// Host resolves "include" directives against a base directory, tracking
// which paths have already been included so that a second include of the
// same file is silently skipped (pragma-once, §6.4) rather than recompiled.
type Host struct {
	baseDir  string
	included map[string]bool
}

// NewHost creates a Host resolving relative include paths against baseDir.
func NewHost(baseDir string) *Host {
	return &Host{baseDir: baseDir, included: make(map[string]bool)}
}

// Resolve implements compiler.Includer. It reads path (relative to baseDir
// unless absolute), returning ok=false without error if path was already
// included by this Host.
func (h *Host) Resolve(path string) (src string, ok bool, err error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(h.baseDir, path)
	}
	full, err = filepath.Abs(full)
	if err != nil {
		return "", false, err
	}
	if h.included[full] {
		return "", false, nil
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", false, err
	}
	h.included[full] = true
	return string(b), true, nil
}
