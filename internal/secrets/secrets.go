// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves credentials from a drop directory: one file per
// entry, where the filename is the lookup key and the trimmed file body is
// the value. The venuelens CLI reads .secrets/ at startup; the one
// well-known entry is openalex-email, which backs the --email default on
// OpenAlex requests.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Load gathers the entries under dir into a map keyed by filename. A dir
// that does not exist simply has no entries, so hosts without a drop
// directory run on built-in defaults. Subdirectories and dotfiles are
// ignored, blank entries are dropped, and an entry that cannot be read is
// reported on stderr and skipped rather than failing the whole load.
func Load(dir string) (map[string]string, error) {
	found := map[string]string{}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return found, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing secrets dir %s: %w", dir, err)
	}

	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: secret %s unreadable, skipping: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(body)); v != "" {
			found[name] = v
		}
	}
	return found, nil
}
