package stats

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed stats.json
var defaultAllowList []byte

// AllowList is the immutable set of stat names the server accepts.
type AllowList struct {
	names map[string]struct{}
}

// NewAllowList builds an AllowList from names.
func NewAllowList(names ...string) *AllowList {
	a := &AllowList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		a.names[n] = struct{}{}
	}
	return a
}

// ParseAllowList decodes a JSON array of stat names.
func ParseAllowList(data []byte) (*AllowList, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse allow-list: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("parse allow-list: no stat names")
	}
	return NewAllowList(names...), nil
}

// LoadAllowList reads the allow-list at path, or the built-in list when path is empty.
func LoadAllowList(path string) (*AllowList, error) {
	if path == "" {
		return ParseAllowList(defaultAllowList)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allow-list: %w", err)
	}
	return ParseAllowList(data)
}

func (a *AllowList) Contains(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.names[name]
	return ok
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}
