package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reExport = regexp.MustCompile(`^\s*export\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
	reAssign = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
)

// loadEnv loads simple shell-style env files into the process env.
// Supports `export KEY=value` and `KEY=value` lines with unquoted,
// single-quoted, or double-quoted values. Already-set variables are not
// overwritten.
func loadEnv(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		scan := bufio.NewScanner(f)
		for scan.Scan() {
			line := strings.TrimSpace(scan.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			var key, val string
			if m := reExport.FindStringSubmatch(line); m != nil {
				key, val = m[1], m[2]
			} else if m := reAssign.FindStringSubmatch(line); m != nil {
				key, val = m[1], m[2]
			} else {
				continue
			}
			if os.Getenv(key) != "" {
				continue
			}
			os.Setenv(key, unquote(strings.TrimSpace(val)))
		}
		f.Close()
	}
}

func unquote(val string) string {
	if len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
		v := val[1 : len(val)-1]
		v = strings.ReplaceAll(v, `\\`, `\`)
		v = strings.ReplaceAll(v, `\"`, `"`)
		return v
	}
	if len(val) >= 2 && strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
		return val[1 : len(val)-1]
	}
	return val
}

// loadDefaultEnv loads env from CLINTEL_ENV, ~/.clinicalintel.env, and
// ./.env when present.
func loadDefaultEnv() {
	if p := strings.TrimSpace(os.Getenv("CLINTEL_ENV")); p != "" {
		loadEnv(p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		loadEnv(filepath.Join(home, ".clinicalintel.env"))
	}
	loadEnv(".env")
}
