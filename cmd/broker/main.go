package main

import (
	"fmt"
	"net"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fanzynoodle/slopmud/internal/broker"
	"github.com/fanzynoodle/slopmud/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println()
	fmt.Println("  ┌───────────────────────────────────────────┐")
	fmt.Println("  │              slopmud broker                │")
	fmt.Println("  └───────────────────────────────────────────┘")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  ── %s %s\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string)    { fmt.Printf("  [ok] %s\n", msg) }
func printReady(msg string) { fmt.Printf("  [ready] %s\n", msg) }

func run() error {
	cfgPath := "config/broker.toml"
	if p := os.Getenv("SLOPMUD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadBrokerConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	printSection("accounts")
	srv, err := broker.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("new broker server: %w", err)
	}
	printOK(fmt.Sprintf("accounts file %s ready", cfg.AccountsPath))
	fmt.Println()

	ln, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Bind, err)
	}
	defer ln.Close()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Bind))
	printReady(fmt.Sprintf("shard target %s", cfg.ShardAddr))
	fmt.Println()

	return srv.Serve(ln)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
