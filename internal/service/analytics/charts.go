package analytics

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	panelWidth  = 600
	panelHeight = 400
)

// renderDashboard 渲染四宫格仪表盘：分类占比、小时分布、日趋势、问题长度分布
// 四张子图各自渲染成 PNG 后拼成一张 1200x800 的图片
func renderDashboard(records []record, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create static dir: %w", err)
		}
	}

	panels := []func([]record) (image.Image, error){
		renderCategoryPie,
		renderHourlyBars,
		renderDailyTrend,
		renderLengthHistogram,
	}

	dashboard := image.NewRGBA(image.Rect(0, 0, panelWidth*2, panelHeight*2))
	draw.Draw(dashboard, dashboard.Bounds(), image.White, image.Point{}, draw.Src)

	for i, render := range panels {
		img, err := render(records)
		if err != nil {
			return fmt.Errorf("failed to render dashboard panel %d: %w", i, err)
		}
		x := (i % 2) * panelWidth
		y := (i / 2) * panelHeight
		rect := image.Rect(x, y, x+panelWidth, y+panelHeight)
		draw.Draw(dashboard, rect, img, img.Bounds().Min, draw.Src)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dashboard file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, dashboard); err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	return nil
}

// renderCategoryPie 分类占比饼图
func renderCategoryPie(records []record) (image.Image, error) {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Category]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	values := make([]chart.Value, 0, len(labels))
	for _, label := range labels {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", label, counts[label]),
			Value: float64(counts[label]),
		})
	}

	pie := chart.PieChart{
		Title:  "Query Categories",
		Width:  panelWidth,
		Height: panelHeight,
		Values: values,
	}
	return renderToImage(pie.Render)
}

// renderHourlyBars 按小时分布柱状图
func renderHourlyBars(records []record) (image.Image, error) {
	var hours [24]int
	for _, rec := range records {
		hours[rec.Timestamp.Hour()]++
	}

	bars := make([]chart.Value, 0, 24)
	for h, count := range hours {
		if count == 0 {
			continue
		}
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(h),
			Value: float64(count),
		})
	}

	bar := chart.BarChart{
		Title:    "Queries by Hour of Day",
		Width:    panelWidth,
		Height:   panelHeight,
		BarWidth: 20,
		Bars:     bars,
	}
	return renderToImage(bar.Render)
}

// renderDailyTrend 日趋势折线图
func renderDailyTrend(records []record) (image.Image, error) {
	daily := make(map[string]int)
	for _, rec := range records {
		daily[rec.Timestamp.Format("2006-01-02")]++
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)

	xs := make([]time.Time, 0, len(days))
	ys := make([]float64, 0, len(days))
	for _, day := range days {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		xs = append(xs, ts)
		ys = append(ys, float64(daily[day]))
	}
	// 折线图至少要两个点，单日数据补一个点撑开横轴
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	line := chart.Chart{
		Title:  "Daily Query Trend",
		Width:  panelWidth,
		Height: panelHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "queries",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return renderToImage(line.Render)
}

// renderLengthHistogram 问题长度分布直方图（20 个等宽桶）
func renderLengthHistogram(records []record) (image.Image, error) {
	maxLen := 0
	for _, rec := range records {
		if len(rec.Query) > maxLen {
			maxLen = len(rec.Query)
		}
	}
	if maxLen == 0 {
		maxLen = 1
	}

	const buckets = 20
	width := (maxLen + buckets - 1) / buckets
	if width == 0 {
		width = 1
	}
	var counts [buckets]int
	for _, rec := range records {
		idx := len(rec.Query) / width
		if idx >= buckets {
			idx = buckets - 1
		}
		counts[idx]++
	}

	bars := make([]chart.Value, 0, buckets)
	for i, count := range counts {
		if count == 0 {
			continue
		}
		bars = append(bars, chart.Value{
			Label: strconv.Itoa(i * width),
			Value: float64(count),
		})
	}

	bar := chart.BarChart{
		Title:    "Query Length Distribution",
		Width:    panelWidth,
		Height:   panelHeight,
		BarWidth: 18,
		Bars:     bars,
	}
	return renderToImage(bar.Render)
}

// renderToImage 把图表渲染到内存再解码成 image.Image 供拼图使用
func renderToImage(render func(chart.RendererProvider, io.Writer) error) (image.Image, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart png: %w", err)
	}
	return img, nil
}
