package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "scadtest"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	reportsFlagName     = "reports"
	runParallelFlagName = "parallel"
	keepFlagName        = "keep"
	updateFlagName      = "update"
	onlyFlagName        = "only"
	logFileFlagName     = "log-file"
	verboseFlagName     = "verbose"

	reportsConfigKey         = "reports"
	suiteConfigKey           = "suite"
	rendererPathKey          = "renderer.path"
	rendererArgsKey          = "renderer.args"
	rendererTimeoutKey       = "renderer.timeout"
	integrationDefaultArgKey = "integration.default_args"
	expectedDirKey           = "paths.expected"
	scratchDirKey            = "paths.scratch"
	runParallelConfigKey     = "run.parallel"
	runKeepConfigKey         = "run.keep"
	runUpdateConfigKey       = "run.update"
	watchDebounceKey         = "watch.debounce"

	defaultReportsDir      = ".scadtest-reports"
	defaultSuitePath       = "tests/suite.yaml"
	defaultRendererTimeout = 0
	defaultExpectedDir     = "tests/expected"
	defaultScratchDir      = "."
	defaultRunParallel     = 1
	defaultWatchDebounce   = 500 * time.Millisecond

	envPrefix = "SCADTEST"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".scadtest.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Reported once the logger exists.
			configReadErr = err
		}
	}
}

// configReadErr keeps a config file error until logging is configured.
var configReadErr error

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(reportsConfigKey, defaultReportsDir)
	viper.SetDefault(suiteConfigKey, defaultSuitePath)
	viper.SetDefault(rendererPathKey, "")
	viper.SetDefault(rendererArgsKey, []string{})
	viper.SetDefault(rendererTimeoutKey, defaultRendererTimeout)
	viper.SetDefault(integrationDefaultArgKey, m.DefaultIntegrationArgs)
	viper.SetDefault(expectedDirKey, defaultExpectedDir)
	viper.SetDefault(scratchDirKey, defaultScratchDir)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runKeepConfigKey, false)
	viper.SetDefault(runUpdateConfigKey, false)
	viper.SetDefault(watchDebounceKey, defaultWatchDebounce.String())

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// rendererTimeout reads renderer.timeout as seconds. Zero or less disables it.
func rendererTimeout() time.Duration {
	seconds := viper.GetInt(rendererTimeoutKey)
	if seconds <= 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}

// watchDebounce reads watch.debounce, falling back to the default on bad values.
func watchDebounce() time.Duration {
	d := viper.GetDuration(watchDebounceKey)
	if d <= 0 {
		return defaultWatchDebounce
	}

	return d
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if configReadErr != nil {
		slog.Warn("Ignoring unreadable config file", "file", viper.ConfigFileUsed(), "error", configReadErr)
	}
}
