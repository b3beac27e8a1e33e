package data

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/config"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
	"github.com/iWorld-y/report_radar/app/studio/internal/conf"
)

// Data 服务持有的数据资源
type Data struct {
	Store *storage.Storage
}

// NewData 打开报告库并初始化表结构
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	if c == nil || c.Database == nil {
		return nil, nil, fmt.Errorf("data.database is not configured")
	}
	store, err := storage.NewStorage(config.DBConfig{
		Driver: c.Database.Driver,
		DSN:    c.Database.Source,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		store.Close()
	}
	return &Data{Store: store}, cleanup, nil
}
