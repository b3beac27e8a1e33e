package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

func TestBriefQuery(t *testing.T) {
	assert.Equal(t, "AI芯片 semiconductors", BriefQuery(model.Brief{Title: " AI芯片 ", Industry: "semiconductors"}))
	assert.Equal(t, "储能", BriefQuery(model.Brief{Title: "储能"}))
}

func TestToDataSources(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	results := []Result{
		{Title: "第一篇", URL: "https://a.example/1"},
		{Title: "没有链接"},
		{Title: "重复", URL: "https://a.example/1"},
		{Title: " 第二篇 ", URL: "https://a.example/2"},
		{Title: "第三篇", URL: "https://a.example/3"},
	}

	got := ToDataSources(results, 2, now)
	assert.Equal(t, []model.DataSource{
		{Name: "第一篇", Type: SourceTypeWeb, URL: "https://a.example/1", UploadedAt: "2025-03-01T00:00:00Z"},
		{Name: "第二篇", Type: SourceTypeWeb, URL: "https://a.example/2", UploadedAt: "2025-03-01T00:00:00Z"},
	}, got)

	assert.Len(t, ToDataSources(results, 0, now), 3)
	assert.NotNil(t, ToDataSources(nil, 5, now))
}
