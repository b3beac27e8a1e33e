package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

const (
	tableReports       = "industry_reports"
	tableConversations = "report_conversations"
)

var reportColumns = []string{
	"id", "user_id", "title", "industry", "scenario", "objective",
	"data_sources", "outline", "highlights", "metrics", "status", "content",
	"created_at", "updated_at",
}

// Storage 报告与对话记录的持久化
type Storage struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// NewStorage 按配置打开数据库并初始化表结构，driver 支持 postgres 与 sqlite
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	driver := cfg.Driver
	switch driver {
	case "":
		driver = "postgres"
	case "sqlite3":
		driver = "sqlite"
	}

	db, err := sql.Open(driver, cfg.DSNString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := New(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New 使用已打开的连接创建 Storage
func New(db *sql.DB, driver string) (*Storage, error) {
	s := &Storage{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
	switch driver {
	case "postgres":
		s.dialect = dialect.Postgres
	case "sqlite", "sqlite3":
		s.dialect = dialect.SQLite
		// 单连接保证 :memory: 数据库在连接间共享
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	if err := s.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema(ctx context.Context) error {
	id, ts := "SERIAL PRIMARY KEY", "TIMESTAMP"
	if s.dialect == dialect.SQLite {
		id, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS industry_reports (
			id ` + id + `,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			industry TEXT NOT NULL,
			scenario TEXT,
			objective TEXT,
			data_sources TEXT NOT NULL DEFAULT '[]',
			outline TEXT NOT NULL DEFAULT '[]',
			highlights TEXT NOT NULL DEFAULT '[]',
			metrics TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'draft'
				CHECK (status IN ('draft', 'drafting', 'generating', 'completed', 'failed')),
			content TEXT,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_industry_reports_user ON industry_reports (user_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS report_conversations (
			id ` + id + `,
			report_id INTEGER NOT NULL REFERENCES industry_reports(id) ON DELETE CASCADE,
			user_id INTEGER,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
			message TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_report_conversations_report ON report_conversations (report_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// insert 执行插入并返回自增 id，postgres 使用 RETURNING，sqlite 使用 LastInsertId
func (s *Storage) insert(ctx context.Context, ex execQuerier, b *entsql.InsertBuilder) (int64, error) {
	if s.dialect == dialect.Postgres {
		query, args := b.Returning("id").Query()
		var id int64
		if err := ex.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	query, args := b.Query()
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Storage) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// CreateReport 插入报告并返回 id
func (s *Storage) CreateReport(ctx context.Context, r *model.Report) (int64, error) {
	now := s.now()
	status := r.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown report status %q", model.ErrInvalidArgument, status)
	}
	b := s.builder().Insert(tableReports).
		Columns("user_id", "title", "industry", "scenario", "objective",
			"data_sources", "outline", "highlights", "metrics", "status", "created_at", "updated_at").
		Values(r.UserID, r.Title, r.Industry, nullable(r.Scenario), nullable(r.Objective),
			model.EncodeJSON(r.DataSources), model.EncodeJSON(r.Outline), model.EncodeJSON(r.Highlights),
			model.EncodeJSON(r.Metrics), string(status), now, now)

	id, err := s.insert(ctx, s.db, b)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	r.ID, r.Status, r.CreatedAt, r.UpdatedAt = id, status, now, now
	return id, nil
}

// GetReport 按 id 读取报告，userID 为 0 时不校验归属
func (s *Storage) GetReport(ctx context.Context, id, userID int64) (*model.Report, error) {
	query, args := s.builder().Select(reportColumns...).
		From(entsql.Table(tableReports)).
		Where(ownedBy(id, userID)).
		Query()

	r, err := scanReport(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report %d: %w", id, err)
	}
	return r, nil
}

// ListReports 按更新时间倒序列出用户的报告
func (s *Storage) ListReports(ctx context.Context, userID int64) ([]*model.Report, error) {
	query, args := s.builder().Select(reportColumns...).
		From(entsql.Table(tableReports)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("updated_at"), entsql.Desc("id")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ReportUpdate 报告的部分更新，nil 字段保持不变
type ReportUpdate struct {
	Title      *string
	Industry   *string
	Scenario   *string
	Outline    *[]model.OutlineNode
	Highlights *[]string
	Metrics    *map[string]any
	Status     *model.Status
	Content    *string
	// Touch 为 true 时刷新 updated_at
	Touch bool
}

// UpdateReport 按 id 更新报告，userID 非 0 时只更新该用户的报告。返回是否命中
func (s *Storage) UpdateReport(ctx context.Context, id, userID int64, u ReportUpdate) (bool, error) {
	b := s.builder().Update(tableReports)
	set := 0
	setIf := func(column string, ok bool, v any) {
		if ok {
			b.Set(column, v)
			set++
		}
	}
	setIf("title", u.Title != nil, deref(u.Title))
	setIf("industry", u.Industry != nil, deref(u.Industry))
	setIf("scenario", u.Scenario != nil, nullable(deref(u.Scenario)))
	if u.Outline != nil {
		setIf("outline", true, model.EncodeJSON(*u.Outline))
	}
	if u.Highlights != nil {
		setIf("highlights", true, model.EncodeJSON(*u.Highlights))
	}
	if u.Metrics != nil {
		setIf("metrics", true, model.EncodeJSON(*u.Metrics))
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return false, fmt.Errorf("%w: unknown report status %q", model.ErrInvalidArgument, *u.Status)
		}
		setIf("status", true, string(*u.Status))
	}
	setIf("content", u.Content != nil, cleanText(deref(u.Content)))
	setIf("updated_at", u.Touch, s.now())
	if set == 0 {
		return false, fmt.Errorf("empty update for report %d", id)
	}

	query, args := b.Where(ownedBy(id, userID)).Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update report %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteReport 删除报告及其对话记录
func (s *Storage) DeleteReport(ctx context.Context, id, userID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query, args := s.builder().Select("id").
		From(entsql.Table(tableReports)).
		Where(ownedBy(id, userID)).
		Query()
	var found int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	query, args = s.builder().Delete(tableConversations).Where(entsql.EQ("report_id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to delete conversations: %w", err)
	}
	query, args = s.builder().Delete(tableReports).Where(entsql.EQ("id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}
	return true, tx.Commit()
}

// AppendMessage 追加一条对话记录并返回 id
func (s *Storage) AppendMessage(ctx context.Context, m *model.ConversationMessage) (int64, error) {
	now := s.now()
	var userID any
	if m.UserID != nil {
		userID = *m.UserID
	}
	b := s.builder().Insert(tableConversations).
		Columns("report_id", "user_id", "role", "message", "created_at").
		Values(m.ReportID, userID, string(m.Role), cleanText(m.Message), now)

	id, err := s.insert(ctx, s.db, b)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	m.ID, m.CreatedAt = id, now
	return id, nil
}

// ListMessages 按时间正序返回报告的全部对话
func (s *Storage) ListMessages(ctx context.Context, reportID int64) ([]model.ConversationMessage, error) {
	query, args := s.builder().Select("id", "report_id", "user_id", "role", "message", "created_at").
		From(entsql.Table(tableConversations)).
		Where(entsql.EQ("report_id", reportID)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id")).
		Query()
	return s.queryMessages(ctx, query, args)
}

// RecentMessages 返回最近 limit 条对话，按时间正序
func (s *Storage) RecentMessages(ctx context.Context, reportID int64, limit int) ([]model.ConversationMessage, error) {
	query, args := s.builder().Select("id", "report_id", "user_id", "role", "message", "created_at").
		From(entsql.Table(tableConversations)).
		Where(entsql.EQ("report_id", reportID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Query()
	msgs, err := s.queryMessages(ctx, query, args)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Storage) queryMessages(ctx context.Context, query string, args []any) ([]model.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.ConversationMessage{}
	for rows.Next() {
		var (
			m      model.ConversationMessage
			userID sql.NullInt64
			role   string
		)
		if err := rows.Scan(&m.ID, &m.ReportID, &userID, &role, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			m.UserID = &userID.Int64
		}
		m.Role = model.Role(role)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*model.Report, error) {
	var (
		r                                         model.Report
		scenario, objective, content              sql.NullString
		dataSources, outline, highlights, metrics string
		status                                    string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Industry, &scenario, &objective,
		&dataSources, &outline, &highlights, &metrics, &status, &content,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Scenario, r.Objective = scenario.String, objective.String
	r.DataSources = model.DecodeDataSources([]byte(dataSources))
	r.Outline = model.DecodeOutline([]byte(outline))
	r.Highlights = model.DecodeStrings([]byte(highlights))
	r.Metrics = model.DecodeMetrics([]byte(metrics))
	r.Status = model.Status(status)
	if content.Valid {
		c := content.String
		r.Content = &c
	}
	return &r, nil
}

func ownedBy(id, userID int64) *entsql.Predicate {
	if userID == 0 {
		return entsql.EQ("id", id)
	}
	return entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// cleanText 移除非法 UTF-8 与 NULL 字符，PostgreSQL 文本字段不支持 NULL 字节
func cleanText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}
