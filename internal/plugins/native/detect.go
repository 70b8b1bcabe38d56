package native

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"charm.land/log/v2"

	"softcenter/internal/plugins"
)

// Options locates the package manager. Zero fields use system defaults.
type Options struct {
	OSRelease   string
	APKCacheDir string
	APKDatabase string
	LookPath    func(file string) (string, error)
}

func (o Options) withDefaults() Options {
	if o.OSRelease == "" {
		o.OSRelease = "/etc/os-release"
	}
	if o.APKCacheDir == "" {
		o.APKCacheDir = "/var/cache/apk"
	}
	if o.APKDatabase == "" {
		o.APKDatabase = "/lib/apk/db/installed"
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	return o
}

// Factory registers the native plugin under its configuration name
func Factory(opts Options, logger *log.Logger) plugins.Factory {
	return plugins.Factory{
		Name: Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			return Detect(ctx, opts, logger)
		},
	}
}

// Detect picks the package manager for this system. Distributions named in
// os-release are tried first, then whatever tools are on PATH.
func Detect(ctx context.Context, opts Options, logger *log.Logger) (*Plugin, error) {
	opts = opts.withDefaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	if f, err := os.Open(opts.OSRelease); err == nil {
		ids = distroIDs(parseOSRelease(f))
		f.Close()
	}

	candidates := map[string]func() (manager, bool){
		"apt": func() (manager, bool) {
			return apt{}, has(opts, "apt-cache") && has(opts, "dpkg-query")
		},
		"pacman": func() (manager, bool) {
			return pacman{}, has(opts, "pacman")
		},
		"apk": func() (manager, bool) {
			_, err := os.Stat(opts.APKCacheDir)
			return apk{cacheDir: opts.APKCacheDir, installedDB: opts.APKDatabase}, err == nil
		},
	}

	order := []string{}
	for _, id := range ids {
		if m := familyOf(id); m != "" {
			order = append(order, m)
		}
	}
	order = append(order, "apt", "pacman", "apk")

	for _, name := range order {
		if m, ok := candidates[name](); ok {
			p := newPlugin(m, logger)
			p.logger.Debug("detected package manager", "manager", name, "distro", ids)
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no supported package manager found", plugins.ErrUnavailable)
}

func has(opts Options, bin string) bool {
	_, err := opts.LookPath(bin)
	return err == nil
}

func familyOf(id string) string {
	switch id {
	case "debian", "ubuntu", "linuxmint", "pop", "raspbian", "elementary":
		return "apt"
	case "arch", "manjaro", "endeavouros", "garuda":
		return "pacman"
	case "alpine", "postmarketos":
		return "apk"
	}
	return ""
}

// parseOSRelease reads KEY=value pairs, unquoting values
func parseOSRelease(r io.Reader) map[string]string {
	out := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[key] = strings.Trim(value, `"'`)
	}
	return out
}

// distroIDs returns ID followed by ID_LIKE entries
func distroIDs(release map[string]string) []string {
	var ids []string
	if id := release["ID"]; id != "" {
		ids = append(ids, id)
	}
	ids = append(ids, strings.Fields(release["ID_LIKE"])...)
	return ids
}
