// Package awsfiles reads the AWS shared credentials and config files into
// plain section → key → value tables.
//
// Parsing is a pure text transform (Parse, NormalizeConfig). File location
// and reading live in paths.go and never fail for a missing file.
package awsfiles

import (
	"bufio"
	"strings"
)

// Section maps keys to values inside one [section].
type Section map[string]string

// Table maps section names to their key/value rows.
type Table map[string]Section

// Get returns the value for key in section, or "" when either is absent.
func (t Table) Get(section, key string) string {
	return t[section][key]
}

// Names returns the section names in no particular order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// Parse turns INI-style text into a Table.
//
// Lines are trimmed; blank lines and lines starting with '#' or ';' are
// skipped. "[name]" opens (or re-opens) the section called exactly name.
// "key = value" assigns everything after the first '=' to key, both sides
// trimmed. Lines before the first header and lines that match neither form
// are ignored.
func Parse(text string) Table {
	table := Table{}
	var current Section

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		if len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']' {
			name := line[1 : len(line)-1]
			sec, ok := table[name]
			if !ok {
				sec = Section{}
				table[name] = sec
			}
			current = sec
			continue
		}

		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		current[key] = strings.TrimSpace(value)
	}

	return table
}

const profilePrefix = "profile "

// NormalizeConfig rewrites config-file section names so they line up with
// credentials-file names: "[profile dev]" becomes "dev". "[default]" is kept
// as-is. When both "[dev]" and "[profile dev]" exist, the prefixed form wins
// key by key.
func NormalizeConfig(t Table) Table {
	out := make(Table, len(t))

	// Unprefixed sections first so prefixed ones can override them.
	for name, sec := range t {
		if strings.HasPrefix(name, profilePrefix) {
			continue
		}
		merge(out, name, sec)
	}
	for name, sec := range t {
		if !strings.HasPrefix(name, profilePrefix) {
			continue
		}
		short := strings.TrimSpace(strings.TrimPrefix(name, profilePrefix))
		if short == "" {
			continue
		}
		merge(out, short, sec)
	}
	return out
}

func merge(t Table, name string, sec Section) {
	dst, ok := t[name]
	if !ok {
		dst = Section{}
		t[name] = dst
	}
	for k, v := range sec {
		dst[k] = v
	}
}
