// =============================================================================
// TextScore 主入口
// =============================================================================
// 命令行与 HTTP 服务入口
//
// 使用方法:
//
//	textscore segment --input pairs.json            # 分词
//	textscore score --input pairs.yaml --metrics rouge,chrf
//	textscore metrics                               # 列出可用指标
//	textscore serve --config config.yaml            # 启动服务
//	textscore health --addr http://localhost:8080   # 健康检查
//	textscore version                               # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/textscore/config"
	"github.com/BaSui01/textscore/evaluation"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/segment"
	"github.com/BaSui01/textscore/store"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "segment":
		err = runSegment(os.Args[2:], os.Stdout)
	case "score":
		err = runScore(os.Args[2:], os.Stdout)
	case "metrics":
		err = runMetrics(os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(os.Args[2:])
	case "health":
		err = runHealthCheck(os.Args[2:])
	case "version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ✂️ segment 命令
// =============================================================================

func runSegment(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	input := fs.String("input", "", "Path to input file (.json or .yaml)")
	lang := fs.String("lang", "", "Language override: word|char (aliases en, zh)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	batch, err := readBatch(*input)
	if err != nil {
		return err
	}
	override, err := parseLanguageFlag(*lang)
	if err != nil {
		return err
	}

	seg, err := segment.SegmentBatch(batch, override)
	if err != nil {
		return err
	}
	langs := make([]string, len(seg.Languages))
	for i, l := range seg.Languages {
		langs[i] = l.String()
	}
	return writeJSON(out, map[string]any{
		"references": seg.References,
		"candidates": seg.Candidates,
		"languages":  langs,
	})
}

// =============================================================================
// 📐 score 命令
// =============================================================================

// scoreOutput 是 score 命令的输出
type scoreOutput struct {
	ReportID  string                        `json:"report_id,omitempty"`
	Pairs     int                           `json:"pairs"`
	Scores    map[string][]metric.PairScore `json:"scores"`
	Summaries map[string]evaluation.Summary `json:"summaries"`
	Duration  string                        `json:"duration"`
}

func runScore(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	input := fs.String("input", "", "Path to input file (.json or .yaml)")
	metrics := fs.String("metrics", "", "Comma-separated metrics, defaults to scoring.default_metrics")
	configPath := fs.String("config", "", "Path to config file")
	lang := fs.String("lang", "", "Language override: word|char (aliases en, zh)")
	ngram := fs.Int("ngram", 0, "chrF character n-gram order")
	beta := fs.Float64("beta", 0, "chrF recall weight")
	persist := fs.Bool("store", false, "Save the report to the configured database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, _, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	batch, err := readBatch(*input)
	if err != nil {
		return err
	}

	names := cfg.Scoring.DefaultMetrics
	if *metrics != "" {
		names = splitList(*metrics)
	}
	kinds, err := metric.ParseKinds(names)
	if err != nil {
		return err
	}

	params := cfg.Scoring.Params.Clone()
	if *lang != "" {
		if params.Language, err = parseLanguageFlag(*lang); err != nil {
			return err
		}
	}
	if *ngram != 0 {
		params.NGram = *ngram
	}
	if *beta != 0 {
		params.Beta = *beta
	}

	scorers, err := buildScorers(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer scorers.Close()

	ctx := context.Background()
	result, err := scorers.Registry.Evaluate(ctx, kinds, batch, params)
	if err != nil {
		return err
	}

	output := scoreOutput{
		Pairs:     result.Pairs,
		Scores:    make(map[string][]metric.PairScore, len(result.Scores)),
		Summaries: evaluation.SummarizeResult(result),
		Duration:  result.Duration.String(),
	}
	for k, s := range result.Scores {
		output.Scores[k.String()] = s
	}

	if *persist {
		st, err := store.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		report := store.NewReport(result, params, map[string]string{"source": "cli"})
		if err := st.Save(ctx, report); err != nil {
			return err
		}
		output.ReportID = report.ID
	}

	return writeJSON(out, output)
}

// =============================================================================
// 📋 metrics 命令
// =============================================================================

func runMetrics(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	scorers, err := buildScorers(cfg, zap.NewNop(), nil)
	if err != nil {
		return err
	}
	defer scorers.Close()

	registered := make(map[metric.Kind]bool)
	for _, k := range scorers.Registry.Kinds() {
		registered[k] = true
	}
	for _, k := range metric.AllKinds() {
		state := "unavailable"
		if registered[k] {
			state = "available"
		}
		fmt.Fprintf(out, "%-10s %-13s %s\n", k, k.Shape(), state)
	}
	return nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := config.NewLoader().WithConfigPath(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, level, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting TextScore",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := NewServer(ctx, loader, cfg, logger, level)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		_ = server.Shutdown()
		return err
	}

	waitErr := server.WaitForShutdown(ctx)
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("TextScore stopped")
	return waitErr
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimRight(*addr, "/") + "/healthz")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	fmt.Println("OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "TextScore %s\n", Version)
	fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `TextScore - reference-based text generation metrics

Usage:
  textscore <command> [options]

Commands:
  segment   Segment references and candidates into tokens
  score     Score candidates against references
  metrics   List metrics and whether a scorer is available
  serve     Start the HTTP API server
  health    Check server health
  version   Show version information
  help      Show this help message

Options for segment:
  --input string    Path to input file (.json or .yaml)
  --lang string     Language override: word|char

Options for score:
  --input string    Path to input file (.json or .yaml)
  --metrics string  Comma-separated metrics (rouge,chrf,bertscore,bleu,meteor,bleurt,wer)
  --config string   Path to config file
  --lang string     Language override: word|char
  --ngram int       chrF character n-gram order
  --beta float      chrF recall weight
  --store           Save the report to the configured database

Options for serve:
  --config string   Path to config file

Options for health:
  --addr string     Server address (default "http://localhost:8080")

Input file:
  {"references": ["..."], "candidates": ["..."]}
`)
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(path).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// readBatch 读取 {references, candidates} 输入文件，按扩展名选择 JSON 或 YAML
func readBatch(path string) (segment.Batch, error) {
	if path == "" {
		return segment.Batch{}, fmt.Errorf("--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return segment.Batch{}, fmt.Errorf("read input: %w", err)
	}
	return decodeBatch(data, filepath.Ext(path))
}

func decodeBatch(data []byte, ext string) (segment.Batch, error) {
	var in struct {
		References []string `json:"references" yaml:"references"`
		Candidates []string `json:"candidates" yaml:"candidates"`
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &in); err != nil {
			return segment.Batch{}, fmt.Errorf("parse yaml input: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &in); err != nil {
			return segment.Batch{}, fmt.Errorf("parse json input: %w", err)
		}
	}
	return segment.Batch{References: in.References, Candidates: in.Candidates}, nil
}

func parseLanguageFlag(s string) (segment.Language, error) {
	if s == "" {
		return "", nil
	}
	return segment.ParseLanguage(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// initLogger 按配置构建 zap logger，返回的 AtomicLevel 可在配置热更新时调整级别
func initLogger(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	var zapConfig zap.Config
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = level
	if len(cfg.OutputPaths) > 0 {
		zapConfig.OutputPaths = cfg.OutputPaths
	}
	zapConfig.DisableCaller = !cfg.EnableCaller
	zapConfig.DisableStacktrace = !cfg.EnableStacktrace

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, level, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, level, nil
}

func parseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
