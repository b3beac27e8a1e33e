package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/logger"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
)

const defaultSQLiteFile = "report_radar.db"

func main() {
	var (
		confPath  = flag.String("conf", "configs/config.yaml", "配置文件路径")
		title     = flag.String("title", "", "报告标题")
		industry  = flag.String("industry", "", "行业")
		scenario  = flag.String("scenario", "", "使用场景")
		objective = flag.String("objective", "", "报告目标")
		sources   = flag.String("sources", "", "数据来源，逗号分隔的文件名或 URL")
		reportID  = flag.Int64("report", 0, "已有报告 id，指定时跳过创建")
		userID    = flag.Int64("user", 1, "报告所属用户 id")
		generate  = flag.Bool("generate", false, "生成大纲后继续生成正文")
		outDir    = flag.String("out", "output", "输出目录")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动报告雷达...")

	if cfg.DB.Driver == "" && cfg.DB.DSN == "" && cfg.DB.Host == "" {
		cfg.DB.Driver, cfg.DB.Name = "sqlite", defaultSQLiteFile
		logger.Log.Infof("未配置数据库信息，使用本地 SQLite: %s", defaultSQLiteFile)
	}
	store, err := storage.NewStorage(cfg.DB)
	if err != nil {
		logger.Log.Fatalf("无法连接数据库: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.NewEngine(ctx, cfg, store)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	id := *reportID
	if id == 0 {
		res, err := eng.CreateReport(ctx, *userID, engine.CreateInput{
			Title:       *title,
			Industry:    *industry,
			Scenario:    *scenario,
			Objective:   *objective,
			DataSources: parseSources(*sources),
		})
		if err != nil {
			logger.Log.Fatalf("创建报告失败: %v", err)
		}
		id = res.ReportID
		logger.Log.Infof("报告 [%d] 大纲已生成: %d 个章节", id, len(res.Outline))
	}

	if *generate {
		if _, err := eng.GenerateReport(ctx, *userID, id); err != nil {
			logger.Log.Errorf("生成报告正文失败: %v", err)
		}
	}

	detail, err := eng.GetReport(ctx, model.Viewer{UserID: *userID}, id)
	if err != nil {
		logger.Log.Fatalf("读取报告失败: %v", err)
	}

	mdPath, htmlPath, err := writeOutputs(*outDir, detail)
	if err != nil {
		logger.Log.Fatalf("写入报告文件失败: %v", err)
	}
	logger.Log.Infof("✅ 报告 [%d] 状态 %s，已输出: %s, %s", id, detail.Status, mdPath, htmlPath)
}

// parseSources 解析命令行中的数据来源，http(s) 开头的视为 URL
func parseSources(raw string) []model.DataSource {
	var out []model.DataSource
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "http://"), strings.HasPrefix(part, "https://"):
			out = append(out, model.DataSource{URL: part, Type: "web"})
		default:
			out = append(out, model.DataSource{Name: filepath.Base(part), Type: "file"})
		}
	}
	return out
}
