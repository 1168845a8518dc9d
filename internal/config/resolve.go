package config

import (
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strings"
)

// ResolveValue resolves indirection schemes in config values so secrets
// never have to live in the config file:
// - op://vault/item/field -> 1Password secret (via `op read`)
// - srv://record/path -> DNS SRV lookup + path (always HTTPS)
// - $(...) -> shell command output
// - ${VAR} or $VAR -> environment variable
// - anything else -> returned as-is
func ResolveValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	switch {
	case strings.HasPrefix(value, "op://"):
		return resolveOnePassword(value)
	case strings.HasPrefix(value, "srv://"):
		return resolveSRV(value)
	case strings.HasPrefix(value, "$(") && strings.HasSuffix(value, ")"):
		return resolveCommand(value[2 : len(value)-1])
	default:
		return expandEnv(value), nil
	}
}

// resolveOnePassword reads op://vault/item/field through the `op` CLI. An
// optional ?account=... query selects among signed-in accounts.
func resolveOnePassword(opURL string) (string, error) {
	u, err := url.Parse(opURL)
	if err != nil {
		return "", fmt.Errorf("1password: invalid URL %s: %w", opURL, err)
	}

	account := u.Query().Get("account")
	cleanURL := fmt.Sprintf("op://%s%s", u.Host, u.Path)

	args := []string{"read", cleanURL}
	if account != "" {
		args = append(args, "--account", account)
	}

	output, err := exec.Command("op", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("1password: failed to read %s: %s (is 'op' CLI installed and signed in?)", cleanURL, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("1password: failed to read %s: %w (is 'op' CLI installed and signed in?)", cleanURL, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// resolveSRV turns srv://_service._proto.domain/path into https://host:port/path
// so base_url can point at an endpoint published via DNS SRV.
func resolveSRV(srvURL string) (string, error) {
	u, err := url.Parse(srvURL)
	if err != nil {
		return "", fmt.Errorf("invalid srv:// URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("srv:// URL missing host: %s", srvURL)
	}

	_, addrs, err := net.LookupSRV("", "", u.Host)
	if err != nil {
		return "", fmt.Errorf("SRV lookup failed for %s: %w", u.Host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no SRV records found for %s", u.Host)
	}

	// First record wins; Go's resolver already sorted by priority/weight.
	host := strings.TrimSuffix(addrs[0].Target, ".")
	return fmt.Sprintf("https://%s:%d%s", host, addrs[0].Port, u.Path), nil
}

// resolveCommand executes a shell command and returns its trimmed output.
func resolveCommand(cmd string) (string, error) {
	output, err := exec.Command("sh", "-c", cmd).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("command failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
