// Package objects parses the world server's object type catalog
// (objects.srv) into an immutable id-indexed table.
//
// The file is block structured text: every block begins at a line whose
// first token is TypeID, and runs until the next such line or the end of
// the file. Within a block the recognized fields are TypeID, Name, Flags
// and Attributes; everything else is ignored.
package objects

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GameObject is one entry of the catalog. It is never mutated after
// parsing and may be freely shared between goroutines.
type GameObject struct {
	ID             uint32   `json:"id"`
	Name           string   `json:"name"`
	Flags          []string `json:"flags"`
	Waypoints      uint32   `json:"waypoints"`
	IsGround       bool     `json:"is_ground"`
	IsImpassable   bool     `json:"is_impassable"`
	DisguiseTarget *uint32  `json:"disguise_target,omitempty"`
}

// HasFlag reports whether the object carries the named flag token.
func (o *GameObject) HasFlag(name string) bool {
	for _, f := range o.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// Catalog maps an object type id to its attributes. Built once per run,
// read-only afterwards.
type Catalog map[uint32]*GameObject

// ParseCatalog reads and parses the objects.srv file at path.
//
// An unparseable TypeID value fails the whole catalog; all other fields
// default to empty when absent. A type id occurring twice keeps the
// later definition.
func ParseCatalog(path string) (Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading objects file %q", path)
	}

	lines := strings.Split(string(content), "\n")

	var starts []int
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "TypeID") {
			starts = append(starts, i)
		}
	}

	catalog := make(Catalog, len(starts))
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		obj, err := parseBlock(lines[start:end])
		if err != nil {
			return nil, err
		}
		catalog[obj.ID] = obj
	}

	return catalog, nil
}

func parseBlock(lines []string) (*GameObject, error) {
	obj := &GameObject{}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "TypeID"):
			value := fieldValue(line, "TypeID")
			// The value may carry an inline comment.
			if idx := strings.Index(value, "#"); idx >= 0 {
				value = strings.TrimSpace(value[:idx])
			}
			id, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing TypeID %q", value)
			}
			obj.ID = uint32(id)
		case strings.HasPrefix(line, "Name"):
			obj.Name = strings.Trim(fieldValue(line, "Name"), "\"")
		case strings.HasPrefix(line, "Flags"):
			value := strings.Trim(fieldValue(line, "Flags"), "{}")
			obj.Flags = splitTokens(value)
		case strings.HasPrefix(line, "Attributes"):
			value := fieldValue(line, "Attributes")
			if wp, ok := extractAttribute(value, "Waypoints"); ok {
				obj.Waypoints = wp
			}
			if dt, ok := extractAttribute(value, "DisguiseTarget"); ok {
				target := dt
				obj.DisguiseTarget = &target
			}
		}
	}

	hasUnpass := obj.HasFlag("Unpass")
	obj.IsGround = obj.Waypoints > 0 && !hasUnpass
	obj.IsImpassable = hasUnpass || obj.Waypoints == 0

	return obj, nil
}

// fieldValue strips the field name and the = separator from a line.
func fieldValue(line, field string) string {
	value := strings.TrimSpace(strings.TrimPrefix(line, field))
	value = strings.TrimPrefix(value, "=")
	return strings.TrimSpace(value)
}

func splitTokens(s string) []string {
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		tokens = append(tokens, strings.TrimSpace(p))
	}
	return tokens
}

// extractAttribute finds a key=value entry inside a comma separated
// attribute list by substring search, the way the server itself does.
func extractAttribute(attributes, key string) (uint32, bool) {
	for _, entry := range strings.Split(attributes, ",") {
		if !strings.Contains(entry, key) {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			return 0, false
		}
		value := strings.TrimRight(strings.TrimSpace(kv[1]), "}")
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(n), true
	}
	return 0, false
}
