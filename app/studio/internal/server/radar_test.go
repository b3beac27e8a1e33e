package server

import (
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/pacer"
	"github.com/iWorld-y/report_radar/app/studio/internal/conf"
)

func TestRadarConfig_ShippedConfig(t *testing.T) {
	c := config.New(config.WithSource(file.NewSource("../../configs/config.yaml")))
	defer c.Close()
	require.NoError(t, c.Load())

	var bc conf.Bootstrap
	require.NoError(t, c.Scan(&bc))

	cfg := RadarConfig(bc.Radar)
	pause := time.Duration(cfg.Generation.SectionPauseMS) * time.Millisecond
	assert.Equal(t, pacer.DefaultPause, pause)
	assert.Equal(t, "eino", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", bc.Data.Database.Driver)
}

func TestRadarConfig_NilSections(t *testing.T) {
	cfg := RadarConfig(&conf.Radar{Generation: &conf.Generation{SectionPauseMs: 500}})
	assert.Equal(t, 500, cfg.Generation.SectionPauseMS)
	assert.Empty(t, cfg.Search.Provider)
}
