package xlsx

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

const (
	sheetName  = "年度健康服務計畫"
	lastColumn = "N"
	fontFamily = "微軟正黑體"

	firstMonthColumn = 3
	monthCount       = 12
)

// Goals are the strategy goals printed above the Gantt chart.
type Goals struct {
	ShortTerm string `json:"shortTerm"`
	MidTerm   string `json:"midTerm"`
	LongTerm  string `json:"longTerm"`
}

func (g Goals) rows() [][2]string {
	return [][2]string{
		{"短期目標 (1-3月)", orDefault(g.ShortTerm, "完成缺失計畫建置")},
		{"中期目標 (1年)", orDefault(g.MidTerm, "降低危害風險")},
		{"長期目標 (3年)", orDefault(g.LongTerm, "建立健康職場認證")},
	}
}

// Options tune one plan rendering.
type Options struct {
	// Now stamps the plan year and print date; zero means time.Now.
	Now      time.Time
	Location *time.Location
	// Tasks overrides the tasks derived from the record, e.g. the ones stored with a project.
	Tasks []domain.Task
}

// PlanFileName returns the download name of a plan workbook.
func PlanFileName(companyName string) string {
	return orDefault(companyName, "未命名") + "_年度健康服務計畫.xlsx"
}

// Compose renders the annual plan workbook for a record.
func Compose(record domain.Record, goals Goals, approval domain.ApprovalStatus, opts Options) ([]byte, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if opts.Location != nil {
		now = now.In(opts.Location)
	}
	tasks := opts.Tasks
	if tasks == nil {
		tasks = domain.Derive(record)
	}

	f := excelize.NewFile()
	b, err := newBuilder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := b.write(record, goals, approval, tasks, now); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styles struct {
	title, info, section, header          int
	goalLabel, goalText                   int
	taskCategory, taskName                int
	monthEmpty, monthFilled               int
	footerLabel, approved, pendingApprove int
}

type builder struct {
	f      *excelize.File
	styles styles
	row    int
}

func newBuilder(f *excelize.File) (*builder, error) {
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	b := &builder{f: f}
	if err := b.createStyles(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *builder) createStyles() error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerFill := excelize.Fill{Type: "pattern", Color: []string{"#EEEEEE"}, Pattern: 1}
	bold := &excelize.Font{Family: fontFamily, Size: 12, Bold: true}
	normal := &excelize.Font{Family: fontFamily, Size: 11}

	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&b.styles.title, &excelize.Style{
			Font:      &excelize.Font{Family: fontFamily, Size: 18, Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&b.styles.info, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}}},
		{&b.styles.section, &excelize.Style{Font: bold, Fill: headerFill}},
		{&b.styles.header, &excelize.Style{
			Font: bold, Fill: headerFill, Border: border,
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&b.styles.goalLabel, &excelize.Style{Font: bold, Border: border}},
		{&b.styles.goalText, &excelize.Style{Font: normal, Border: border}},
		{&b.styles.taskCategory, &excelize.Style{
			Font: normal, Border: border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&b.styles.taskName, &excelize.Style{
			Font: normal, Border: border,
			Alignment: &excelize.Alignment{Vertical: "center"},
		}},
		{&b.styles.monthEmpty, &excelize.Style{Font: normal, Border: border}},
		{&b.styles.monthFilled, &excelize.Style{
			Font: normal, Border: border,
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#92D050"}, Pattern: 1},
		}},
		{&b.styles.footerLabel, &excelize.Style{Font: bold}},
		{&b.styles.approved, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Bold: true, Color: "#008000"}}},
		{&b.styles.pendingApprove, &excelize.Style{Font: &excelize.Font{Family: fontFamily, Bold: true, Color: "#FF0000"}}},
	}
	for _, def := range defs {
		id, err := b.f.NewStyle(def.style)
		if err != nil {
			return fmt.Errorf("failed to create style: %w", err)
		}
		*def.target = id
	}
	return nil
}

func (b *builder) write(record domain.Record, goals Goals, approval domain.ApprovalStatus, tasks []domain.Task, now time.Time) error {
	steps := []func() error{
		func() error { return b.writeTitle(record, approval, now) },
		func() error { return b.writeGoals(goals) },
		func() error { return b.writeGantt(tasks) },
		func() error { return b.writeFooter(approval) },
		b.setColumnWidths,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) writeTitle(record domain.Record, approval domain.ApprovalStatus, now time.Time) error {
	title := "年度勞工健康服務執行計畫書"
	if !approval.Approved() {
		title += " (草稿/待審核)"
	}
	b.row = 1
	if err := b.mergedRow(title, b.styles.title); err != nil {
		return err
	}
	info := fmt.Sprintf("事業單位：%s   |   年度：%d   |   製表日期：%s",
		orDefault(record.CompanyName, "未填寫"), now.Year(), now.Format("2006/1/2"))
	return b.mergedRow(info, b.styles.info)
}

func (b *builder) writeGoals(goals Goals) error {
	if err := b.mergedRow("壹、年度策略目標", b.styles.section); err != nil {
		return err
	}
	if err := b.labelledRow("類別", "目標內容", b.styles.header, b.styles.header); err != nil {
		return err
	}
	for _, goal := range goals.rows() {
		if err := b.labelledRow(goal[0], goal[1], b.styles.goalLabel, b.styles.goalText); err != nil {
			return err
		}
	}
	b.row++
	return nil
}

func (b *builder) writeGantt(tasks []domain.Task) error {
	if err := b.mergedRow("貳、執行進度甘特圖", b.styles.section); err != nil {
		return err
	}

	header := []interface{}{"類別", "執行項目"}
	for m := 1; m <= monthCount; m++ {
		header = append(header, fmt.Sprintf("%d月", m))
	}
	if err := b.setRow(header); err != nil {
		return err
	}
	if err := b.styleRange(1, firstMonthColumn+monthCount-1, b.styles.header); err != nil {
		return err
	}
	b.row++

	for _, task := range tasks {
		if err := b.setRow([]interface{}{string(task.Category), task.Name}); err != nil {
			return err
		}
		if err := b.styleRange(1, 1, b.styles.taskCategory); err != nil {
			return err
		}
		if err := b.styleRange(2, 2, b.styles.taskName); err != nil {
			return err
		}
		for m := 1; m <= monthCount; m++ {
			style := b.styles.monthEmpty
			if task.Months.Contains(m) {
				style = b.styles.monthFilled
			}
			col := MonthColumn(m)
			if err := b.styleRange(col, col, style); err != nil {
				return err
			}
		}
		b.row++
	}
	b.row += 2
	return nil
}

func (b *builder) writeFooter(approval domain.ApprovalStatus) error {
	labels := map[int]string{1: "專案護理師：", 5: "企業負責人/代表：", 9: "安澤主管審核："}
	for col, label := range labels {
		if err := b.setCell(col, label, b.styles.footerLabel); err != nil {
			return err
		}
	}
	if approval.Approved() {
		return b.setCell(10, "✅ 已核准", b.styles.approved)
	}
	return b.setCell(10, "⏳ 待審核", b.styles.pendingApprove)
}

func (b *builder) setColumnWidths() error {
	if err := b.f.SetColWidth(sheetName, "A", "A", 15); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := b.f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := b.f.SetColWidth(sheetName, "C", lastColumn, 5); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

// MonthColumn returns the 1-based column index of a calendar month on the Gantt chart.
func MonthColumn(month int) int {
	return firstMonthColumn + month - 1
}

// mergedRow writes value across A:N of the current row and advances.
func (b *builder) mergedRow(value string, style int) error {
	start := fmt.Sprintf("A%d", b.row)
	end := fmt.Sprintf("%s%d", lastColumn, b.row)
	if err := b.f.SetCellValue(sheetName, start, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", start, err)
	}
	if err := b.f.MergeCell(sheetName, start, end); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", start, end, err)
	}
	if err := b.f.SetCellStyle(sheetName, start, end, style); err != nil {
		return fmt.Errorf("failed to style %s:%s: %w", start, end, err)
	}
	b.row++
	return nil
}

// labelledRow writes label in A and text merged across B:N, then advances.
func (b *builder) labelledRow(label, text string, labelStyle, textStyle int) error {
	if err := b.setCell(1, label, labelStyle); err != nil {
		return err
	}
	if err := b.setCell(2, text, textStyle); err != nil {
		return err
	}
	start := fmt.Sprintf("B%d", b.row)
	end := fmt.Sprintf("%s%d", lastColumn, b.row)
	if err := b.f.MergeCell(sheetName, start, end); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", start, end, err)
	}
	if err := b.f.SetCellStyle(sheetName, start, end, textStyle); err != nil {
		return fmt.Errorf("failed to style %s:%s: %w", start, end, err)
	}
	b.row++
	return nil
}

func (b *builder) setRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := b.f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to set row %d: %w", b.row, err)
	}
	return nil
}

func (b *builder) setCell(col int, value string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, b.row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := b.f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return b.f.SetCellStyle(sheetName, cell, cell, style)
}

func (b *builder) styleRange(fromCol, toCol, style int) error {
	start, err := excelize.CoordinatesToCellName(fromCol, b.row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(toCol, b.row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := b.f.SetCellStyle(sheetName, start, end, style); err != nil {
		return fmt.Errorf("failed to style %s:%s: %w", start, end, err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
