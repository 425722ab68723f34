package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"
)

// ErrNoConfigDir is returned by operations that need a configuration
// directory when running on the built-in defaults.
var ErrNoConfigDir = errors.New("no configuration directory")

type Configuration struct {
	configFs  afero.Fs
	configDir string

	Color         string `json:"color" validate:"oneof=always auto never"`
	StrictParsing bool   `json:"strict_parsing"`
	ExecEnabled   bool   `json:"exec_enabled"`
	Handle        string `json:"handle" validate:"required,printascii,excludesall=@"`
	HistoryFile   string `json:"history_file" validate:"omitempty,excludesall=/\\"`
	LogLevel      Level  `json:"log_level" validate:"oneof=debug info warn error off"`
}

// Level is a log level name. YAML reads a bare off as false, so false is
// accepted as off.
type Level string

func (l *Level) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var off bool
	if err := json.Unmarshal(data, &off); err == nil {
		if off {
			return fmt.Errorf("log_level: %s is not a level", data)
		}
		*l = "off"
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*l = Level(name)
	return nil
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir is the configuration directory, empty for the built-in defaults.
func (c *Configuration) Dir() string {
	return c.configDir
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if c.configFs == nil {
		return nil, ErrNoConfigDir
	}
	return c.configFs.OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// HistoryPath is the host path of the console history file, empty when
// history is disabled or there is no configuration directory.
func (c *Configuration) HistoryPath() string {
	if c.configDir == "" || c.HistoryFile == "" {
		return ""
	}
	return filepath.Join(c.configDir, c.HistoryFile)
}

// Default returns the built-in configuration. It is not backed by a
// directory.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
