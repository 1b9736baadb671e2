package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/logger"
)

// createBackup rotates .back1, .back2 and .back3 before a config write.
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back1 := configPath + ".back1"
	back2 := configPath + ".back2"
	back3 := configPath + ".back3"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// A stale oldest backup does not block the save
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, back3, logger.FieldError, err)
	}
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

// SetValue writes key=raw into the user config file.
func SetValue(key, raw string) (string, error) {
	path := UserConfigPath()
	if path == "" {
		return "", errors.New("could not determine home directory")
	}
	if err := SetValueInFile(path, key, raw); err != nil {
		return "", err
	}
	Reset()
	return path, nil
}

// SetValueInFile writes key=raw into the TOML file at path, creating it if
// needed. raw is converted to the type of the key's default value, and the
// resulting configuration must validate before anything is written.
func SetValueInFile(path, key, raw string) error {
	defaults := viper.New()
	SetDefaults(defaults)
	if !defaults.IsSet(key) {
		return errors.WithHint(errors.Newf("unknown configuration key %q", key),
			"run 'skosprobe am show' to list keys")
	}

	value, err := convert(defaults.Get(key), raw)
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", key)
	}

	tree := map[string]interface{}{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &tree); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	setNested(tree, strings.Split(key, "."), value)

	data, err := toml.Marshal(tree)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Validate the merged result before touching the file
	check := viper.New()
	SetDefaults(check)
	check.SetConfigType("toml")
	if err := check.MergeConfig(strings.NewReader(string(data))); err != nil {
		return errors.Wrap(err, "failed to re-read config")
	}
	cfg, err := LoadWithViper(check)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrapf(err, "refusing to set %s", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func convert(def interface{}, raw string) (interface{}, error) {
	switch def.(type) {
	case bool:
		return strconv.ParseBool(raw)
	case int, int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err
	case float64:
		return strconv.ParseFloat(raw, 64)
	default:
		return raw, nil
	}
}

func setNested(tree map[string]interface{}, path []string, value interface{}) {
	if len(path) == 1 {
		tree[path[0]] = value
		return
	}
	child, ok := tree[path[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		tree[path[0]] = child
	}
	setNested(child, path[1:], value)
}
