package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/procd/internal/output"
)

// errInvalidConfig wraps every rejected configuration value.
var errInvalidConfig = errors.New("invalid configuration")

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "procd"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize configuration",
	Long: `Show or initialize procd configuration.

Running bare 'procd config' is the same as 'procd config show'. Both show and
init reject loop timings the runner can't use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configSetting is one key procd reads. check, when set, rejects values the
// consuming command can't use.
type configSetting struct {
	key   string
	check func(v any) error
}

var configSettings = []configSetting{
	{key: "processing_delay", check: nonNegativeDuration},
	{key: "stop_poll_interval", check: positiveDuration},
	{key: "db_path", check: nonEmptyString},
	{key: "journal.enabled", check: boolValue},
	{key: "metrics.addr"},
}

// envVarFor mirrors the viper env binding set up in initConfig.
func envVarFor(key string) string {
	return "PROCD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// A zero delay is allowed: the loop then only yields between iterations.
func nonNegativeDuration(v any) error {
	d, err := cast.ToDurationE(v)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("must not be negative, got %s", d)
	}
	return nil
}

func positiveDuration(v any) error {
	d, err := cast.ToDurationE(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

func nonEmptyString(v any) error {
	s, err := cast.ToStringE(v)
	if err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func boolValue(v any) error {
	_, err := cast.ToBoolE(v)
	return err
}

// checkSetting validates the effective value of key.
func checkSetting(s configSetting) error {
	if s.check == nil {
		return nil
	}
	if err := s.check(viper.Get(s.key)); err != nil {
		return fmt.Errorf("%w: %s: %w", errInvalidConfig, s.key, err)
	}
	return nil
}

// durationSetting returns key as a duration after validating it.
// viper.GetDuration would turn an unparseable value into 0, which for
// processing_delay means a loop that never sleeps.
func durationSetting(key string) (time.Duration, error) {
	for _, s := range configSettings {
		if s.key != key {
			continue
		}
		if err := checkSetting(s); err != nil {
			return 0, err
		}
		return cast.ToDurationE(viper.Get(key))
	}
	return 0, fmt.Errorf("%w: unknown key %s", errInvalidConfig, key)
}

func processingDelay() (time.Duration, error) { return durationSetting("processing_delay") }

func stopPollInterval() (time.Duration, error) { return durationSetting("stop_poll_interval") }

// validateConfig checks every setting and joins the failures.
func validateConfig() error {
	var errs []error
	for _, s := range configSettings {
		if err := checkSetting(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# procd configuration
# See: procd config show (for effective values and sources)

# Pause between loop iterations, 0 or more (default: 500ms)
processing_delay: {{ .ProcessingDelay }}

# Spacing of liveness checks while 'daemon stop' waits, above 0 (default: 500ms)
stop_poll_interval: {{ .StopPollInterval }}

# SQLite run journal path (default: ~/.config/procd/procd.db)
# db_path: {{ .DBPath }}

# Run journal
journal:
  # Record every run in the journal, see 'procd history' (default: true)
  enabled: {{ .JournalEnabled }}

# Prometheus metrics
metrics:
  # Serve /metrics and /healthz on this address while looping, e.g. ":9090"
  # (default: "", disabled)
  addr: "{{ .MetricsAddr }}"
`

type configTemplateData struct {
	ProcessingDelay  time.Duration
	StopPollInterval time.Duration
	DBPath           string
	JournalEnabled   bool
	MetricsAddr      string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// configInitRun writes the effective settings as a commented config file.
// Invalid values are refused rather than written out.
func configInitRun() error {
	if err := validateConfig(); err != nil {
		return err
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	delay, err := processingDelay()
	if err != nil {
		return err
	}
	poll, err := stopPollInterval()
	if err != nil {
		return err
	}
	data := configTemplateData{
		ProcessingDelay:  delay,
		StopPollInterval: poll,
		DBPath:           viper.GetString("db_path"),
		JournalEnabled:   viper.GetBool("journal.enabled"),
		MetricsAddr:      viper.GetString("metrics.addr"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configShowRun prints every setting with its value and source. Invalid
// values are marked and make the command fail after the table is printed.
func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	var inFile map[string]bool
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		ui.Info("Config file: %s", cfgPath)
		if inFile, err = configFileKeys(cfgPath); err != nil {
			ui.Warning("Config file is not valid YAML: %v", err)
		}
	} else {
		ui.Info("Config file: (none)")
	}

	var errs []error
	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, s := range configSettings {
		value := fmt.Sprint(viper.Get(s.key))
		if err := checkSetting(s); err != nil {
			errs = append(errs, err)
			value = output.Red(value + " (invalid)")
		}
		_ = table.Append([]string{s.key, value, settingSource(s.key, inFile)})
	}
	if err := table.Render(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// configFileKeys returns the dotted keys set in the YAML file at path.
func configFileKeys(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	collectKeys("", doc, keys)
	return keys, nil
}

func collectKeys(prefix string, m map[string]any, keys map[string]bool) {
	for k, v := range m {
		if prefix != "" {
			k = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			collectKeys(k, nested, keys)
			continue
		}
		keys[k] = true
	}
}

// settingSource names where the effective value of key comes from, in
// viper's precedence order.
func settingSource(key string, inFile map[string]bool) string {
	if env := envVarFor(key); os.Getenv(env) != "" {
		return "env: " + env
	}
	if inFile[key] {
		return "file"
	}
	return "default"
}
