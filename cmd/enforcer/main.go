package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fanzynoodle/slopmud/internal/config"
	"github.com/fanzynoodle/slopmud/internal/enforcer"
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
	fmt.Println("  │              slopmud enforcer               │")
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
	cfgPath := "config/enforcer.toml"
	if p := os.Getenv("SBC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadEnforcerConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	printSection("policy")
	e, err := enforcer.New(cfg, log)
	if err != nil {
		return fmt.Errorf("new enforcer: %w", err)
	}
	printOK(fmt.Sprintf("node %s", cfg.NodeID))
	printOK(fmt.Sprintf("exempt prefixes %s", cfg.ExemptPrefixesPath))
	fmt.Println()

	printSection("ready")
	printReady(fmt.Sprintf("admin socket %s", cfg.AdminSock))
	printReady(fmt.Sprintf("events socket %s", cfg.EventsSock))
	printReady(fmt.Sprintf("status http %s", cfg.StatusHTTPAddr))
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("enforcer run: %w", err)
	}
	return nil
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
