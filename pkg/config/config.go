package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/castellan/config"
	ConfigFileName    = "castellan.yml"
)

// ValidReporterModes is the list of valid jira reporter modes
var ValidReporterModes = []string{"jira-token-user", "reviewer-as-reporter"}

// JiraConfig holds the built-in jira exporter settings. Credentials are not
// part of the file config; they resolve lazily from JIRA_USER and
// JIRA_API_TOKEN.
type JiraConfig struct {
	// Enabled registers the jira exporter at startup
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Host is the jira instance, with or without scheme
	Host string `yaml:"host" json:"host"`

	// ProjectID is the jira project issues are created in
	ProjectID string `yaml:"project_id" json:"project_id"`

	// IssueTypeID is the jira issue type for exported action items
	IssueTypeID string `yaml:"issue_type_id" json:"issue_type_id"`

	// ReporterMode is "jira-token-user" or "reviewer-as-reporter"
	ReporterMode string `yaml:"reporter_mode" json:"reporter_mode"`

	// ExportOnApproval triggers export when a review is approved
	ExportOnApproval bool `yaml:"export_on_approval" json:"export_on_approval"`
}

// Config holds all castellan configuration settings
type Config struct {
	// BindAddress is the address the HTTP server listens on
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the HTTP server port
	Port string `yaml:"port" json:"port"`

	// ExportTimeoutSeconds bounds each outbound exporter API call
	ExportTimeoutSeconds int `yaml:"export_timeout_seconds" json:"export_timeout_seconds"`

	// ProxyURL routes all outbound exporter calls through a proxy
	ProxyURL string `yaml:"proxy_url" json:"proxy_url"`

	// Origin is the externally visible base URL, used in export payloads
	// that link back to a model
	Origin string `yaml:"origin" json:"origin"`

	// Jira configures the built-in jira exporter
	Jira JiraConfig `yaml:"jira" json:"jira"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		BindAddress:          "0.0.0.0",
		Port:                 "8000",
		ExportTimeoutSeconds: 30,
		Jira: JiraConfig{
			ReporterMode:     "jira-token-user",
			ExportOnApproval: true,
		},
		sources: make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("CASTELLAN_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "export_timeout_seconds", "proxy_url",
		"origin", "jira.enabled", "jira.host", "jira.project_id",
		"jira.issue_type_id", "jira.reporter_mode", "jira.export_on_approval",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != "" {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.ExportTimeoutSeconds != 0 {
		c.ExportTimeoutSeconds = file.ExportTimeoutSeconds
		c.sources["export_timeout_seconds"] = "file"
	}
	if file.ProxyURL != "" {
		c.ProxyURL = file.ProxyURL
		c.sources["proxy_url"] = "file"
	}
	if file.Origin != "" {
		c.Origin = file.Origin
		c.sources["origin"] = "file"
	}
	if file.Jira.Enabled {
		c.Jira.Enabled = true
		c.sources["jira.enabled"] = "file"
	}
	if file.Jira.Host != "" {
		c.Jira.Host = file.Jira.Host
		c.sources["jira.host"] = "file"
	}
	if file.Jira.ProjectID != "" {
		c.Jira.ProjectID = file.Jira.ProjectID
		c.sources["jira.project_id"] = "file"
	}
	if file.Jira.IssueTypeID != "" {
		c.Jira.IssueTypeID = file.Jira.IssueTypeID
		c.sources["jira.issue_type_id"] = "file"
	}
	if file.Jira.ReporterMode != "" {
		c.Jira.ReporterMode = file.Jira.ReporterMode
		c.sources["jira.reporter_mode"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("CASTELLAN_BIND_ADDRESS"); val != "" {
		c.BindAddress = val
		c.sources["bind_address"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_PORT"); val != "" {
		c.Port = val
		c.sources["port"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_EXPORT_TIMEOUT_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ExportTimeoutSeconds = i
			c.sources["export_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("CASTELLAN_PROXY_URL"); val != "" {
		c.ProxyURL = val
		c.sources["proxy_url"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_ORIGIN"); val != "" {
		c.Origin = val
		c.sources["origin"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_JIRA_ENABLED"); val != "" {
		c.Jira.Enabled = val == "true" || val == "1"
		c.sources["jira.enabled"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_JIRA_HOST"); val != "" {
		c.Jira.Host = val
		c.sources["jira.host"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_JIRA_PROJECT_ID"); val != "" {
		c.Jira.ProjectID = val
		c.sources["jira.project_id"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_JIRA_ISSUE_TYPE_ID"); val != "" {
		c.Jira.IssueTypeID = val
		c.sources["jira.issue_type_id"] = "environment"
	}
	if val := os.Getenv("CASTELLAN_JIRA_REPORTER_MODE"); val != "" {
		c.Jira.ReporterMode = val
		c.sources["jira.reporter_mode"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// ExportTimeout returns the per-call exporter timeout as a duration
func (c *Config) ExportTimeout() time.Duration {
	return time.Duration(c.ExportTimeoutSeconds) * time.Second
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if c.ExportTimeoutSeconds < 0 {
		return fmt.Errorf("export_timeout_seconds must not be negative")
	}
	if c.Jira.Enabled {
		if c.Jira.Host == "" {
			return fmt.Errorf("jira.host is required when jira is enabled")
		}
		valid := false
		for _, mode := range ValidReporterModes {
			if c.Jira.ReporterMode == mode {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid jira.reporter_mode: %s", c.Jira.ReporterMode)
		}
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: c.Port, Source: c.Source("port")},
		{Name: "export_timeout_seconds", Value: strconv.Itoa(c.ExportTimeoutSeconds), Source: c.Source("export_timeout_seconds")},
		{Name: "proxy_url", Value: c.ProxyURL, Source: c.Source("proxy_url")},
		{Name: "origin", Value: c.Origin, Source: c.Source("origin")},
		{Name: "jira.enabled", Value: strconv.FormatBool(c.Jira.Enabled), Source: c.Source("jira.enabled")},
		{Name: "jira.host", Value: c.Jira.Host, Source: c.Source("jira.host")},
		{Name: "jira.project_id", Value: c.Jira.ProjectID, Source: c.Source("jira.project_id")},
		{Name: "jira.issue_type_id", Value: c.Jira.IssueTypeID, Source: c.Source("jira.issue_type_id")},
		{Name: "jira.reporter_mode", Value: c.Jira.ReporterMode, Source: c.Source("jira.reporter_mode")},
		{Name: "jira.export_on_approval", Value: strconv.FormatBool(c.Jira.ExportOnApproval), Source: c.Source("jira.export_on_approval")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
