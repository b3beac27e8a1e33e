package main

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/engine"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
)

func writeOutputs(dir string, detail *engine.ReportDetail) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	base := filepath.Join(dir, fmt.Sprintf("report-%d", detail.ID))

	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(detail)), 0o644); err != nil {
		return "", "", err
	}

	htmlPath := base + ".html"
	f, err := os.Create(htmlPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	if err := renderHTML(f, detail); err != nil {
		return "", "", err
	}
	return mdPath, htmlPath, nil
}

// renderMarkdown 有正文时输出正文，否则输出大纲
func renderMarkdown(d *engine.ReportDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	fmt.Fprintf(&sb, "> 行业：%s", d.Industry)
	if d.Scenario != "" {
		fmt.Fprintf(&sb, " | 场景：%s", d.Scenario)
	}
	fmt.Fprintf(&sb, " | 状态：%s\n\n", d.Status)

	if len(d.Highlights) > 0 {
		sb.WriteString("## 亮点\n\n")
		for _, h := range d.Highlights {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("\n")
	}

	if d.Content != nil && strings.TrimSpace(*d.Content) != "" {
		sb.WriteString(strings.TrimSpace(*d.Content))
		sb.WriteString("\n")
	} else {
		sb.WriteString("## 大纲\n\n")
		writeOutline(&sb, d.Outline, 0)
	}

	if len(d.DataSources) > 0 {
		sb.WriteString("\n## 数据来源\n\n")
		for _, ds := range d.DataSources {
			if ds.URL != "" {
				fmt.Fprintf(&sb, "- [%s](%s)\n", ds.Name, ds.URL)
			} else {
				fmt.Fprintf(&sb, "- %s\n", ds.Name)
			}
		}
	}
	return sb.String()
}

func writeOutline(sb *strings.Builder, nodes []model.OutlineNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, n := range nodes {
		fmt.Fprintf(sb, "%s%d. **%s**\n", indent, i+1, n.Title)
		for _, b := range n.Bullets {
			fmt.Fprintf(sb, "%s   - %s\n", indent, b)
		}
		writeOutline(sb, n.Children, depth+1)
	}
}

const htmlTpl = `
<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title }} - 产业研究报告</title>
    <script src="https://cdn.jsdelivr.net/npm/marked/marked.min.js"></script>
    <style>
        :root {
            --primary-color: #2563eb;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.2rem; margin: 0 0 10px 0; }
        .meta { color: var(--text-secondary); }
        .status { padding: 2px 10px; border-radius: 12px; background: #e2e8f0; }
        .status-completed { background: #dcfce7; color: #166534; }
        .status-failed { background: #fee2e2; color: #991b1b; }
        .card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
            border: 1px solid var(--border-color);
        }
        .card h2 { margin-top: 0; }
        .highlights li { margin-bottom: 8px; }
        .ref-list { list-style: none; padding: 0; }
        .ref-list a { color: var(--primary-color); text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>📊 {{ .Title }}</h1>
            <div class="meta">{{ .Industry }}{{ if .Scenario }} • {{ .Scenario }}{{ end }} • <span class="status status-{{ .Status }}">{{ .Status }}</span></div>
        </header>

        {{ if .Highlights }}
        <div class="card highlights">
            <h2>✨ 亮点</h2>
            <ul>
                {{ range .Highlights }}<li>{{ . }}</li>{{ end }}
            </ul>
        </div>
        {{ end }}

        <div class="card">
            <div id="content"></div>
            <div style="display:none" id="raw-content">{{ .Body }}</div>
        </div>

        {{ if .DataSources }}
        <div class="card">
            <h2>🔗 数据来源</h2>
            <ul class="ref-list">
                {{ range .DataSources }}
                <li>{{ if .URL }}<a href="{{ .URL }}" target="_blank">{{ .Name }}</a>{{ else }}{{ .Name }}{{ end }}</li>
                {{ end }}
            </ul>
        </div>
        {{ end }}
    </div>

    <script>
        document.addEventListener('DOMContentLoaded', function() {
            const raw = document.getElementById('raw-content');
            document.getElementById('content').innerHTML = marked.parse(raw.textContent);
        });
    </script>
</body>
</html>
`

var reportTpl = template.Must(template.New("report").Parse(htmlTpl))

// renderHTML 输出由浏览器端 marked 渲染的 HTML 页面
func renderHTML(w io.Writer, d *engine.ReportDetail) error {
	body := renderMarkdown(d)
	return reportTpl.Execute(w, struct {
		*engine.ReportDetail
		Body string
	}{d, body})
}
