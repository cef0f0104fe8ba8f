package pdf

import (
	"fmt"
	"strings"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

// Block is one unit of report content, laid out top to bottom.
type Block interface {
	isBlock()
}

// Heading is a single bold line, optionally centred on the page.
type Heading struct {
	Text     string
	Size     float64
	Centered bool
}

// Text is a plain line starting at X mm from the left page edge.
type Text struct {
	Content string
	X       float64
	Size    float64
}

// Signatures prints two signature lines side by side.
type Signatures struct {
	Left  string
	Right string
}

// Cell is one table cell. Span > 1 merges following columns.
type Cell struct {
	Text string
	Span int
	Bold bool
	Fill bool
	Size float64
}

// Table is a bordered grid. Head is repeated when the table continues on a new page.
type Table struct {
	Head     []string
	Rows     [][]Cell
	Widths   []float64
	FontSize float64
}

// Spacer advances the cursor.
type Spacer struct {
	Height float64
}

// PageBreakHint starts a new page at Top when the cursor is below Threshold, otherwise it
// advances by Gap.
type PageBreakHint struct {
	Threshold float64
	Top       float64
	Gap       float64
}

func (Heading) isBlock()       {}
func (Text) isBlock()          {}
func (Signatures) isBlock()    {}
func (Table) isBlock()         {}
func (Spacer) isBlock()        {}
func (PageBreakHint) isBlock() {}

const (
	markOn  = "■"
	markOff = "□"

	bodySize = 10.0
)

func mark(v bool) string {
	if v {
		return markOn
	}
	return markOff
}

func or(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func cells(texts ...string) []Cell {
	out := make([]Cell, len(texts))
	for i, t := range texts {
		out[i] = Cell{Text: t}
	}
	return out
}

// Assemble lays out the visit report for a record as an ordered list of blocks.
func Assemble(r domain.Record) []Block {
	blocks := []Block{
		Heading{Text: "安澤健康顧問 (ANZECARE CONSULTING)", Size: 16, Centered: true},
		Heading{Text: "首次臨場服務工作檢核表 (優化版 v2.0)", Size: 14, Centered: true},
		basicInfo(r),
		Spacer{Height: 5},
		Heading{Text: "第一部分：行前/行政準備檢核 (Pre-visit)", Size: 11},
		adminTable(r.Admin),
		Spacer{Height: 5},
		Heading{Text: "第二部分：現場危害與資源盤點 (On-site Walkthrough)", Size: 11},
		Heading{Text: "A. 危害辨識 (依現場觀察勾選)", Size: 11},
		hazardTable(r.Hazards),
		Spacer{Height: 5},
		Heading{Text: "B. 急救與應變資源", Size: 11},
		firstAidTable(r.FirstAid),
		PageBreakHint{Threshold: 250, Top: 20, Gap: 5},
		Heading{Text: "第三部分：四大計畫落實度深查 (PDCA Check)", Size: 11},
		pdcaTable(r.Plans),
		Spacer{Height: 5},
		Heading{Text: "第四部分：健康管理現況評估", Size: 11},
		healthTable(r.Health),
		Spacer{Height: 10},
	}
	return append(blocks, strategy(r.Strategy)...)
}

func basicInfo(r domain.Record) Table {
	shift := fmt.Sprintf("%s常日班  %s輪班 (班別: %s)",
		mark(r.ShiftType == domain.ShiftNormal), mark(r.ShiftType == domain.ShiftRotating), or(r.ShiftNote, "__________"))
	employees := fmt.Sprintf("男: %s / 女: %s (總計: %s)", r.EmpMale, r.EmpFemale, r.EmpTotal)

	return Table{
		Widths:   []float64{25, 66, 20, 71},
		FontSize: 11,
		Rows: [][]Cell{
			{{Text: "基本資料", Span: 4, Bold: true, Fill: true}},
			{{Text: "事業單位名稱", Bold: true}, {Text: r.CompanyName}, {Text: "訪視日期", Bold: true}, {Text: r.VisitDate}},
			{{Text: "服務護理師", Bold: true}, {Text: r.NurseName}, {Text: "陪同人員", Bold: true}, {Text: r.AccompanyingDisplay()}},
			{{Text: "員工人數", Bold: true}, {Text: employees}, {Text: "輪班狀況", Bold: true}, {Text: shift}},
		},
	}
}

func adminTable(a domain.Admin) Table {
	planNote := ""
	if a.HasAnnualPlan == domain.AnnualPlanNone {
		planNote = "會協助建置"
	}
	checkupNote := ""
	if a.HasCheckupAnalysis == domain.PresenceYes {
		checkupNote = fmt.Sprintf("異常人數: %s 人 (%s%%)", or(a.AbnormalCount, "_"), or(a.AbnormalRate, "_"))
	}
	envNote := ""
	if a.HasEnvMonitor == domain.PresenceYes {
		envNote = fmt.Sprintf("年度: %s / 項目: %s", a.EnvMonitorYear, a.EnvMonitorItems)
	}
	sdsNote := ""
	if a.HasSDS == domain.PresenceYes {
		list := "未填寫細項"
		if len(a.SDSList) > 0 {
			list = strings.Join(a.SDSList, "、")
		}
		sdsNote = "化學品: " + list
	}

	return Table{
		Head:     []string{"檢核項目", "文件狀況", "備註/數據"},
		Widths:   []float64{50, 72, 60},
		FontSize: bodySize,
		Rows: [][]Cell{
			cells("1. 勞工健康服務年度計畫",
				fmt.Sprintf("%s有(紙本)  %s有(電子)  %s無",
					mark(a.HasAnnualPlan == domain.AnnualPlanPaper),
					mark(a.HasAnnualPlan == domain.AnnualPlanElectronic),
					mark(a.HasAnnualPlan == domain.AnnualPlanNone)),
				planNote),
			cells("2. 上年度健檢報告分析", yesNo(a.HasCheckupAnalysis, "有", "無"), checkupNote),
			cells("3. 作業環境監測報告", yesNoNA(a.HasEnvMonitor), envNote),
			cells("4. 安全資料表 (SDS)", yesNoNA(a.HasSDS), sdsNote),
			cells("5. 員工名冊 (含年齡/部門)", yesNo(a.HasEmpList, "有 (已取得電子檔)", "無"), "用於分析高風險族群分佈"),
		},
	}
}

func yesNo(p domain.Presence, yes, no string) string {
	return fmt.Sprintf("%s%s  %s%s", mark(p == domain.PresenceYes), yes, mark(p == domain.PresenceNo), no)
}

func yesNoNA(p domain.Presence) string {
	return fmt.Sprintf("%s  %s不適用", yesNo(p, "有", "無"), mark(p == domain.PresenceNotApplicable))
}

func hazardTable(h domain.Hazards) Table {
	return Table{
		Head:     []string{"危害類別", "具體危害因子 (請填寫)", "現有防護具/工程控制", "優先關注"},
		Widths:   []float64{30, 60, 72, 20},
		FontSize: bodySize,
		Rows: [][]Cell{
			cells(mark(h.Physical)+" 物理性", or(h.PhysicalNote, "(例: 噪音、高溫、游離輻射)"), "", mark(h.PhysicalPriority)),
			cells(mark(h.Chemical)+" 化學性", "(例: 有機溶劑、特化物質)",
				fmt.Sprintf("%sSDS標示  %s通風設備", mark(h.ChemicalSDS), mark(h.ChemicalVent)), mark(h.ChemicalPriority)),
			cells(mark(h.Ergo)+" 人因性", or(h.ErgoNote, "(例: 重複性動作、負重)"), mark(h.ErgoTool)+"輔助機具", mark(h.ErgoPriority)),
			cells(mark(h.Bio)+" 生物性", or(h.BioNote, "(例: 血液體液、傳染病)"), "", mark(h.BioPriority)),
			cells(mark(h.Special)+" 特殊作業", or(h.SpecialNote, "(例: 高架、缺氧)"), "", mark(h.SpecialPriority)),
		},
	}
}

func firstAidTable(f domain.FirstAid) Table {
	return Table{
		Head:     []string{"檢核項目", "現況確認", "改善建議"},
		Widths:   []float64{30, 90, 62},
		FontSize: bodySize,
		Rows: [][]Cell{
			cells("急救人員", fmt.Sprintf("%s 每班次至少1人  %s 證照在效期內", mark(f.Personnel), mark(f.License)), ""),
			cells("急救器材/AED",
				fmt.Sprintf("%s 藥品未過期  %s AED功能正常\n%s 配置位置適當", mark(f.Drugs), mark(f.AED), mark(f.Location)),
				"針對化學危害是否備有對應解毒/沖淋設備？"),
			cells("哺乳室/母性保護",
				fmt.Sprintf("%s有設置  %s無 (未達標準)", mark(f.NursingRoom == domain.PresenceYes), mark(f.NursingRoom == domain.PresenceNo)),
				""),
		},
	}
}

var pdcaRows = []struct {
	program domain.Program
	title   string
	labels  [4]string
}{
	{domain.ProgramOverwork, "1. 異常工作負荷 (過勞)", [4]string{"有書面計畫", "已發放問卷", "已篩出高風險群", "已安排醫師面談"}},
	{domain.ProgramErgo, "2. 肌肉骨骼 (人因)", [4]string{"有書面計畫", "已做檢核表", "已篩出危害點", "已做改善/諮詢"}},
	{domain.ProgramViolence, "3. 不法侵害 (霸凌)", [4]string{"有書面計畫", "風險評估表", "書面聲明公告", "教育訓練/通報"}},
	{domain.ProgramMaternal, "4. 母性健康保護", [4]string{"有書面計畫", "作業場所評估", "懷孕/產後名單", "適性配工/分級"}},
}

func pdcaTable(p domain.Plans) Table {
	rows := make([][]Cell, 0, len(pdcaRows)+1)
	for _, def := range pdcaRows {
		tracker := p.Get(def.program)
		priority := fmt.Sprintf("%s高 %s中 %s低",
			mark(tracker.Priority == domain.PriorityHigh),
			mark(tracker.Priority == domain.PriorityMid),
			mark(tracker.Priority == domain.PriorityLow))
		rows = append(rows, []Cell{
			{Text: def.title},
			{Text: mark(tracker.P) + def.labels[0]},
			{Text: mark(tracker.D) + def.labels[1]},
			{Text: mark(tracker.C) + def.labels[2]},
			{Text: mark(tracker.A) + def.labels[3]},
			{Text: priority, Size: 8},
		})
	}
	rows = append(rows, []Cell{{Text: "顧問備註: " + p.Note, Span: 6}})

	return Table{
		Head:     []string{"法規計畫項目", "P (計畫制定)", "D (危害評估)", "C (分級/篩選)", "A (面談/改善)", "年度優先序"},
		Widths:   []float64{35, 30, 30, 31, 31, 25},
		FontSize: bodySize,
		Rows:     rows,
	}
}

func healthTable(h domain.Health) Table {
	hasReturnCases := strings.TrimSpace(h.ReturnCases) != ""
	return Table{
		Head:     []string{"檢核維度", "現況勾選", "顧問評估與建議"},
		Widths:   []float64{25, 70, 87},
		FontSize: 9,
		Rows: [][]Cell{
			{
				{Text: "一般健檢管理", Bold: true},
				{Text: fmt.Sprintf("%s 報告保存7年\n%s 有電子檔分析", mark(h.GeneralSave), mark(h.GeneralAnalysis))},
				{Text: fmt.Sprintf("目前管理分級完成度：\n%s 未分級  %s 僅分級  %s 已分級且有追蹤",
					mark(h.GeneralGrade == domain.GradeNone), mark(h.GeneralGrade == domain.GradePartial), mark(h.GeneralGrade == domain.GradeDone))},
			},
			{
				{Text: "特殊健檢管理", Bold: true},
				{Text: fmt.Sprintf("%s 報告保存10/30年\n%s 分級管理(1-4級)", mark(h.SpecialSave), mark(h.SpecialLevel))},
				{Text: fmt.Sprintf("是否有「第四級(管理級)」人員？\n%s 無  %s 有 (需優先安排訪談)", mark(!h.HasLevel4), mark(h.HasLevel4))},
			},
			{
				{Text: "配工與復工", Bold: true},
				{Text: fmt.Sprintf("%s 適性配工評估\n%s 復工評估機制", mark(h.FitAssess), mark(h.ReturnAssess))},
				{Text: fmt.Sprintf("去年是否有職災/長病假復工案例？\n%s 是 (%s件)  %s 否",
					mark(hasReturnCases), or(h.ReturnCases, "__"), mark(!hasReturnCases))},
			},
			{
				{Text: "健康促進活動", Bold: true},
				{Text: fmt.Sprintf("%s 辦理講座\n%s 減重/運動競賽", mark(h.PromoLecture), mark(h.PromoSport))},
				{Text: fmt.Sprintf("規劃依據： %s 健檢結果  %s 問卷需求",
					mark(h.PromoBasis == domain.PromotionCheckup), mark(h.PromoBasis == domain.PromotionQuestionnaire))},
			},
		},
	}
}

const (
	blankGoal = "________________________"
	blankTodo = "_________________________________"
)

func strategy(s domain.Strategy) []Block {
	line := func(x float64, format string, args ...interface{}) Block {
		return Text{Content: fmt.Sprintf(format, args...), X: x, Size: bodySize}
	}
	return []Block{
		Heading{Text: "第五部分：年度服務策略規劃 (Action Plan)", Size: 11},
		line(14, "1. 本年度三大重點目標 (依優先順序)："),
		line(18, "● 目標一 (最急迫/法規缺失): %s", or(s.Goal1, blankGoal)),
		line(18, "● 目標二 (風險控制): %s", or(s.Goal2, blankGoal)),
		line(18, "● 目標三 (健康促進): %s", or(s.Goal3, blankGoal)),
		Spacer{Height: 4},
		line(14, "2. 臨場服務頻率建議："),
		line(18, "● 預計頻率: 每月 %s 次 / 每季 %s 次", or(s.FreqMonth, "__"), or(s.FreqQuarter, "__")),
		line(18, "● 下次訪視預定日期: %s", or(s.NextDate, "____年__月__日")),
		line(18, "● 待辦事項 (To-do List)："),
		line(18, "   ○ 顧問方需提供: %s", or(s.TodoConsultant, blankTodo)),
		line(18, "   ○ 企業方需準備: %s", or(s.TodoEnterprise, blankTodo)),
		Spacer{Height: 5},
		Signatures{Left: "顧問護理師簽名: __________________", Right: "企業窗口簽名: __________________"},
	}
}
