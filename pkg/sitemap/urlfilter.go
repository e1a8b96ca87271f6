package sitemap

import (
	"strings"
)

// IsFiltered reports whether a URL path is excluded by the include and exclude
// lists of the config. Entries match whole path segments, so /news matches
// /news and /news/a but not /newsletter. Excludes win over includes.
func IsFiltered(urlPath string, cfg *Config) bool {
	path := strings.ToLower(urlPath)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	if len(cfg.PathsToInclude) > 0 && !matchesAny(path, cfg.PathsToInclude) {
		return true
	}
	if len(cfg.PathsToAvoid) > 0 && matchesAny(path, cfg.PathsToAvoid) {
		return true
	}
	return false
}

func matchesAny(path string, entries []string) bool {
	for _, entry := range entries {
		if prefix := normalizePath(entry); prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func normalizePath(entry string) string {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if entry == "" {
		return ""
	}
	if !strings.HasPrefix(entry, "/") {
		entry = "/" + entry
	}
	if !strings.HasSuffix(entry, "/") {
		entry += "/"
	}
	return entry
}
