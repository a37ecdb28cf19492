// ABOUTME: Entry point for the cms-toolbar server
// ABOUTME: Serves the editing toolbar API and manages config and staff accounts

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/term"

	"github.com/2389/cms-toolbar/internal/auth"
	"github.com/2389/cms-toolbar/internal/cmstoolbar"
	"github.com/2389/cms-toolbar/internal/config"
	"github.com/2389/cms-toolbar/internal/server"
	"github.com/2389/cms-toolbar/internal/store"
	"github.com/2389/cms-toolbar/internal/toolbar"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                      _              _ _
  ___ _ __ ___  ___  | |_ ___   ___ | | |__   __ _ _ __
 / __| '_ ' _ \/ __| | __/ _ \ / _ \| | '_ \ / _' | '__|
| (__| | | | | \__ \ | || (_) | (_) | | |_) | (_| | |
 \___|_| |_| |_|___/  \__\___/ \___/|_|_.__/ \__,_|_|
`

// getConfigPath returns the path to the config file.
// Priority: CMS_TOOLBAR_CONFIG env var > XDG_CONFIG_HOME/cms-toolbar/config.yaml > ~/.config/cms-toolbar/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CMS_TOOLBAR_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "cms-toolbar", "config.yaml")
}

// getDataPath returns the path to the data directory.
// Priority: XDG_DATA_HOME/cms-toolbar > ~/.local/share/cms-toolbar
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "cms-toolbar")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: cms-toolbar <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                          Start the toolbar server")
		fmt.Println("  init                           Create a new config file interactively")
		fmt.Println("  createstaff USERNAME [PASSWORD] Create a staff account")
		fmt.Println("  version                        Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "createstaff":
		err = runCreateStaff(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Languages: %s", strings.Join(cfg.I18N.Languages, ", "))
	if !cfg.I18N.UseI18N {
		yellow.Printf(" [i18n off, %s]", cfg.I18N.LanguageCode)
	}
	fmt.Println()
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	if cfg.Tracing.Exporter != "none" {
		green.Print("    ▶ ")
		fmt.Printf("Tracing:   %s\n", cfg.Tracing.Exporter)
	}
	fmt.Println()

	shutdownTracing, err := setupTracing(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	logger.Info("starting cms-toolbar",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"version", version,
	)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	opts := cmstoolbar.DefaultOptions()
	opts.EditOnParam = cfg.Toolbar.EditOnParam
	opts.BuildParam = cfg.Toolbar.BuildParam
	if err := cmstoolbar.Register(toolbar.DefaultPool, opts); err != nil {
		_ = db.Close()
		return fmt.Errorf("registering core toolbars: %w", err)
	}

	srv, err := server.New(server.NewConfig{Config: cfg, Store: db})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// setupTracing installs the global tracer provider for the configured
// exporter. The returned func flushes and stops it.
func setupTracing(cfg config.TracingConfig) (func(context.Context) error, error) {
	if cfg.Exporter != "stdout" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			mu:    &sync.Mutex{},
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
// Handlers derived through WithAttrs and WithGroup share the same mutex.
type colorHandler struct {
	mu     *sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprint(os.Stdout, buf.String())
	return err
}

func writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	buf.WriteString(color.HiBlackString(" " + prefix + a.Key + "="))
	buf.WriteString(a.Value.String())
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		newAttrs = append(newAttrs, a)
	}
	return &colorHandler{mu: h.mu, level: h.level, attrs: newAttrs, prefix: h.prefix}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &colorHandler{mu: h.mu, level: h.level, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// runCreateStaff creates an active staff account. The password is read from
// stdin when it is not given on the command line.
func runCreateStaff(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: cms-toolbar createstaff USERNAME [PASSWORD]")
	}
	username := strings.TrimSpace(args[0])
	if username == "" {
		return errors.New("username cannot be empty or whitespace only")
	}
	if len(username) > auth.UsernameMaxLength {
		return fmt.Errorf("username exceeds maximum length of %d characters", auth.UsernameMaxLength)
	}

	var password string
	if len(args) == 2 {
		password = args[1]
	} else {
		var err error
		if password, err = promptPassword("Password"); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	user := &store.User{
		Username:     username,
		PasswordHash: hash,
		IsStaff:      true,
		IsActive:     true,
	}
	if err := db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	color.New(color.FgGreen).Printf("  ✓ Created staff user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("cms-toolbar configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	defaultDbPath := filepath.Join(getDataPath(), "cms-toolbar.db")

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "127.0.0.1:8000")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Language Configuration ---")
	languages := prompt(reader, "Languages (comma separated)", "en")
	languageCode := prompt(reader, "Default language", strings.TrimSpace(strings.Split(languages, ",")[0]))

	fmt.Println("\n--- Metrics Configuration ---")
	metricsEnabled := isYes(prompt(reader, "Expose Prometheus metrics?", "yes"))

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# cms-toolbar configuration\n")
	cfg.WriteString("# Generated by cms-toolbar init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString("  cookie_name: \"cms_session\"\n")
	cfg.WriteString("  duration: \"336h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("i18n:\n")
	cfg.WriteString("  use_i18n: true\n")
	cfg.WriteString(fmt.Sprintf("  language_code: %q\n", languageCode))
	cfg.WriteString("  languages:\n")
	for _, code := range strings.Split(languages, ",") {
		if code = strings.TrimSpace(code); code != "" {
			cfg.WriteString(fmt.Sprintf("    - %q\n", code))
		}
	}
	cfg.WriteString("\n")

	cfg.WriteString("toolbar:\n")
	cfg.WriteString("  edit_on_param: \"edit\"\n")
	cfg.WriteString("  edit_off_param: \"edit_off\"\n")
	cfg.WriteString("  build_param: \"build\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", metricsEnabled))
	cfg.WriteString("  path: \"/metrics\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("tracing:\n")
	cfg.WriteString("  exporter: \"none\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nNext steps:")
	fmt.Println("  cms-toolbar createstaff <username>")
	fmt.Println("  cms-toolbar serve")
	return nil
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(question string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(bufio.NewReader(os.Stdin), question, ""), nil
	}

	fmt.Printf("%s: ", question)
	passwordBytes, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

func isYes(answer string) bool {
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y"
}
