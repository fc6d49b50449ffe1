package gcloud

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

const configPrefix = "config_"

// Configuration is a named gcloud configuration read from disk.
type Configuration struct {
	Name    string
	Account string
	Project string
}

func configurationsDir(dir string) string {
	return filepath.Join(dir, "configurations")
}

func configFile(dir, name string) string {
	return filepath.Join(configurationsDir(dir), configPrefix+name)
}

func adcFile(dir string) string {
	return filepath.Join(dir, "application_default_credentials.json")
}

// Configurations lists gcloud configurations that name an account, sorted by
// name. A missing gcloud directory yields none.
func Configurations(dir string) ([]Configuration, error) {
	entries, err := os.ReadDir(configurationsDir(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading gcloud configurations: %w", err)
	}

	var configs []Configuration
	for _, entry := range entries {
		name, ok := strings.CutPrefix(entry.Name(), configPrefix)
		if !ok || name == "" || entry.IsDir() {
			continue
		}
		cfg, err := ini.Load(filepath.Join(configurationsDir(dir), entry.Name()))
		if err != nil {
			continue
		}
		core := cfg.Section("core")
		c := Configuration{
			Name:    name,
			Account: strings.TrimSpace(core.Key("account").String()),
			Project: strings.TrimSpace(core.Key("project").String()),
		}
		if c.Account == "" {
			continue
		}
		configs = append(configs, c)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

// ActiveConfiguration returns the name in gcloud's active_config file, or ""
// when there is none.
func ActiveConfiguration(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "active_config"))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading active gcloud configuration: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
