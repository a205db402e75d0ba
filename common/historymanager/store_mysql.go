package historymanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// MySQLConf MySQL 存储连接配置
type MySQLConf struct {
	Addr     string `json:",optional"`
	User     string `json:",optional"`
	Password string `json:",optional"`
	Database string `json:",optional"`
	Table    string `json:",default=dashboard_state"`
	// DataSource 非空时直接使用，忽略上面的拆分字段
	DataSource string `json:",optional"`
}

// DSN 生成驱动连接串
func (c MySQLConf) DSN() string {
	if c.DataSource != "" {
		return c.DataSource
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.Addr
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

const mysqlTableDDL = "CREATE TABLE IF NOT EXISTS `%s` (" +
	"`state_key` varchar(191) NOT NULL," +
	"`state_value` longtext NOT NULL," +
	"`updated_at` bigint NOT NULL," +
	"PRIMARY KEY (`state_key`)" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

// MySQLStore 每个键一行，值为 JSON 文本
type MySQLStore struct {
	conn  sqlx.SqlConn
	table string
}

// NewMySQLStore 基于已有连接创建存储
func NewMySQLStore(conn sqlx.SqlConn, table string) *MySQLStore {
	if table == "" {
		table = "dashboard_state"
	}
	return &MySQLStore{conn: conn, table: table}
}

// NewMySQLStoreFromConf 按配置建立连接并确保表存在
func NewMySQLStoreFromConf(ctx context.Context, c MySQLConf) (*MySQLStore, error) {
	s := NewMySQLStore(sqlx.NewMysql(c.DSN()), c.Table)
	if err := s.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureTable 建表
func (s *MySQLStore) EnsureTable(ctx context.Context) error {
	if _, err := s.conn.ExecCtx(ctx, fmt.Sprintf(mysqlTableDDL, s.table)); err != nil {
		return fmt.Errorf("创建存储表失败: table=%s, %w", s.table, err)
	}
	return nil
}

func (s *MySQLStore) Load(ctx context.Context, key string, v any) (bool, error) {
	var val string
	query := fmt.Sprintf("select `state_value` from `%s` where `state_key` = ? limit 1", s.table)
	err := s.conn.QueryRowCtx(ctx, &val, query, key)
	if errors.Is(err, sqlx.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取 MySQL 失败: key=%s, %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		return false, fmt.Errorf("解析 MySQL 数据失败: key=%s, %w", key, err)
	}
	return true, nil
}

func (s *MySQLStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化失败: key=%s, %w", key, err)
	}
	query := fmt.Sprintf("insert into `%s` (`state_key`, `state_value`, `updated_at`) values (?, ?, ?) "+
		"on duplicate key update `state_value` = values(`state_value`), `updated_at` = values(`updated_at`)", s.table)
	if _, err := s.conn.ExecCtx(ctx, query, key, string(data), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("写入 MySQL 失败: key=%s, %w", key, err)
	}
	return nil
}
