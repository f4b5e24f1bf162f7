// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// Type carries one loaded config file. Namespace scopes lookups to the
// running command, so a key like "sort" resolves through "pq.sort" before
// falling back to the bare key. Data stays an untyped tree; the typed
// getters do the narrowing.
type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

// Config is the process-wide configuration. Commands set its Namespace as
// they start up.
var Config Type

// A missing config file is fine. The getters lazy-load if anything shows up
// later.
func init() {
	_, _ = Load()
}

func ensureLoaded() {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}
}

// GetInt resolves key to an int. YAML hands back int, int64 or float64
// depending on how the number was written; all three narrow. At most one
// default is honored when the key is absent.
func GetInt(key string, defaultValue ...int) (int, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

// GetString resolves key to a string, or the single default when the key is
// absent. A present key holding a non-string is an error, not a default.
func GetString(key string, defaultValue ...string) (string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

// GetStringSlice resolves key to a slice of strings. Every element of a YAML
// list must be a string for the lookup to succeed.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case []string:
		return v, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("slice element is not a string")
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, errors.New("value is not a slice")
	}
}

// Load parses a config file into the process-wide Config. An explicit path
// wins over PEXCTL_CFG_FILE and the standard locations; arguments past the
// first are ignored.
func Load(path ...string) (Type, error) {
	var file string
	if len(path) > 0 {
		file = path[0]
	}

	if file == "" {
		var err error
		if file, err = getConfigFile(); err != nil {
			return Type{}, err
		}
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Type{}, err
	}

	Config = Type{
		Source: file,
		Data:   data,
	}

	return Config, nil
}

// get resolves a dotted key path, trying the namespaced form of the key
// before the bare one.
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 {
		_, _ = Load(cfg.Source)
	}

	candidateKeys := []string{"", kspec}
	if cfg.Namespace != "" {
		candidateKeys[0] = cfg.Namespace + "." + kspec
	}

	for _, key := range candidateKeys {
		if val, ok := lookup(cfg.Data, key); ok {
			return val, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

// lookup walks the raw tree one dotted segment at a time. Any non-map along
// the way ends the walk.
func lookup(data map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = data

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}

	return current, true
}

// getConfigFile picks the config file path. PEXCTL_CFG_FILE wins when set
// and must name an existing file; otherwise we look for pexctl.yaml under
// the user config dir.
func getConfigFile() (string, error) {
	if cfgPath := os.Getenv("PEXCTL_CFG_FILE"); cfgPath != "" {
		info, err := os.Stat(cfgPath)
		if err != nil {
			return "", fmt.Errorf("config file not found at PEXCTL_CFG_FILE path: %s", cfgPath)
		}
		if info.IsDir() {
			return "", fmt.Errorf("PEXCTL_CFG_FILE points to a directory: %s", cfgPath)
		}

		log.Debugf("using config file from PEXCTL_CFG_FILE: %s", cfgPath)
		return cfgPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	file := filepath.Join(dir, "pexctl.yaml")
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		log.Debugf("using config file from user config dir: %s", file)
		return file, nil
	}

	return "", fmt.Errorf("no %s and PEXCTL_CFG_FILE is unset", file)
}
