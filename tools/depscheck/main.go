package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// forbidden lists import edges that would invert the layering: the
// simulation core accepts interfaces and must not depend on the
// packages that plug into it, and wire definitions must not depend on
// the transport that carries them.
var forbidden = []struct {
	from string
	to   string
}{
	{"ironhaul/server/internal/sim", "ironhaul/server/internal/world"},
	{"ironhaul/server/internal/sim", "ironhaul/server/internal/netsync"},
	{"ironhaul/server/internal/gamestate", "ironhaul/server/internal/sim"},
	{"ironhaul/server/internal/netsync/proto", "ironhaul/server/internal/netsync/ws"},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		for _, rule := range forbidden {
			if !strings.HasPrefix(pkg.ImportPath, rule.from) {
				continue
			}
			for _, imp := range pkg.Imports {
				if strings.HasPrefix(imp, rule.to) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}
