package main

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fanzynoodle/slopmud/internal/config"
	"github.com/fanzynoodle/slopmud/internal/grouplog"
	"github.com/fanzynoodle/slopmud/internal/shard"
	"github.com/fanzynoodle/slopmud/internal/shard/scripts"
	"github.com/fanzynoodle/slopmud/internal/worlddata"
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
	fmt.Println("  │               slopmud shard                │")
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

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s %s %s\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string)    { fmt.Printf("  [ok] %s\n", msg) }
func printReady(msg string) { fmt.Printf("  [ready] %s\n", msg) }

func run() error {
	cfgPath := "config/shard.toml"
	if p := os.Getenv("SHARD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadShardConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	printSection("world data")
	rooms, err := worlddata.Load(cfg.WorldDataDir)
	if err != nil {
		return fmt.Errorf("load world data: %w", err)
	}
	printStat("areas", len(rooms.Areas()))
	printOK("room graph loaded")

	scriptEngine, err := scripts.NewEngine(cfg.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua scripting engine: %w", err)
	}
	defer scriptEngine.Close()
	printOK("room-entry scripts loaded")

	printSection("group log")
	now := func() int64 { return time.Now().UnixMilli() }
	groupLog, groupStore, err := grouplog.Open(cfg.RaftLogPath, now)
	if err != nil {
		return fmt.Errorf("open group log: %w", err)
	}
	defer groupLog.Close()
	if err := grouplog.Bootstrap(groupLog, groupStore, shard.ClassNames, cfg.BootstrapAdmins, now()); err != nil {
		return fmt.Errorf("genesis bootstrap: %w", err)
	}
	printOK("genesis bootstrap complete")
	fmt.Println()

	world := shard.NewWorld(shard.Deps{
		Rooms:            rooms,
		Groups:           groupLog,
		Store:            groupStore,
		Scripts:          scriptEngine,
		Now:              now,
		Log:              log,
		BartenderEmoteMs: cfg.BartenderEmoteMs,
		MobWanderMs:      cfg.MobWanderMs,
	})
	world.Bootstrap(now())
	printOK("boss and singleton NPCs bootstrapped")

	ln, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Bind, err)
	}
	defer ln.Close()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Bind))
	fmt.Println()

	srv := shard.NewServer(world, log)
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
