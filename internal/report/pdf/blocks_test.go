package pdf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

func texts(blocks []Block) []string {
	var out []string
	for _, block := range blocks {
		switch b := block.(type) {
		case Heading:
			out = append(out, b.Text)
		case Text:
			out = append(out, b.Content)
		case Signatures:
			out = append(out, b.Left, b.Right)
		case Table:
			out = append(out, b.Head...)
			for _, row := range b.Rows {
				for _, c := range row {
					out = append(out, c.Text)
				}
			}
		}
	}
	return out
}

func containsText(blocks []Block, want string) bool {
	for _, s := range texts(blocks) {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

func TestAssemble_BlankStrategyUsesPlaceholders(t *testing.T) {
	blocks := Assemble(domain.NewRecord(time.Now()))

	assert.True(t, containsText(blocks, "● 目標一 (最急迫/法規缺失): ________________________"))
	assert.True(t, containsText(blocks, "● 預計頻率: 每月 __ 次 / 每季 __ 次"))
	assert.True(t, containsText(blocks, "● 下次訪視預定日期: ____年__月__日"))
	assert.True(t, containsText(blocks, "○ 顧問方需提供: _________________________________"))
	assert.True(t, containsText(blocks, "顧問護理師簽名: __________________"))
	assert.True(t, containsText(blocks, "(班別: __________)"))
}

func TestAssemble_FilledStrategyReplacesPlaceholders(t *testing.T) {
	r := domain.Record{}
	r.Strategy.Goal1 = "建置過勞預防計畫"
	r.Strategy.FreqMonth = "2"
	r.Strategy.NextDate = "2025-04-01"

	blocks := Assemble(r)

	assert.True(t, containsText(blocks, "● 目標一 (最急迫/法規缺失): 建置過勞預防計畫"))
	assert.True(t, containsText(blocks, "每月 2 次 / 每季 __ 次"))
	assert.True(t, containsText(blocks, "● 下次訪視預定日期: 2025-04-01"))
}

func TestAssemble_Markers(t *testing.T) {
	r := domain.NewRecord(time.Now())
	r.Hazards.Physical = true
	r.Hazards.PhysicalNote = "沖床噪音"
	r.Plans.Overwork = domain.PDCA{P: true, Priority: domain.PriorityHigh}
	r.FirstAid.NursingRoom = domain.PresenceYes

	blocks := Assemble(r)

	assert.True(t, containsText(blocks, "■ 物理性"))
	assert.True(t, containsText(blocks, "□ 化學性"))
	assert.True(t, containsText(blocks, "沖床噪音"))
	assert.True(t, containsText(blocks, "(例: 重複性動作、負重)"))
	assert.True(t, containsText(blocks, "■有書面計畫"))
	assert.True(t, containsText(blocks, "□已發放問卷"))
	assert.True(t, containsText(blocks, "■高 □中 □低"))
	assert.True(t, containsText(blocks, "□高 □中 ■低"))
	assert.True(t, containsText(blocks, "■有設置  □無 (未達標準)"))
	assert.True(t, containsText(blocks, "■常日班  □輪班"))
	assert.True(t, containsText(blocks, "□有(紙本)  □有(電子)  ■無"))
}

func TestAssemble_AdminNotes(t *testing.T) {
	r := domain.NewRecord(time.Now())
	r.Admin.HasSDS = domain.PresenceYes
	assert.True(t, containsText(Assemble(r), "化學品: 未填寫細項"))

	r = r.WithSDSAdded("甲苯").WithSDSAdded("二甲苯")
	assert.True(t, containsText(Assemble(r), "化學品: 甲苯、二甲苯"))

	r.Admin.HasCheckupAnalysis = domain.PresenceYes
	assert.True(t, containsText(Assemble(r), "異常人數: _ 人 (_%)"))
	assert.True(t, containsText(Assemble(r), "會協助建置"))
}

func TestAssemble_HealthReturnCases(t *testing.T) {
	r := domain.Record{}
	assert.True(t, containsText(Assemble(r), "□ 是 (__件)  ■ 否"))

	r.Health.ReturnCases = "3"
	assert.True(t, containsText(Assemble(r), "■ 是 (3件)  □ 否"))
}

func TestAssemble_AccompanyingDisplay(t *testing.T) {
	r := domain.Record{}
	r.AccompanyingName = "陳先生"
	r.AccompanyingRole = domain.RoleHR

	assert.True(t, containsText(Assemble(r), "陳先生 (人資)"))
}

func TestAssemble_PageBreakHintFollowsFirstAid(t *testing.T) {
	blocks := Assemble(domain.Record{})

	idx := -1
	for i, block := range blocks {
		if table, ok := block.(Table); ok && len(table.Head) > 1 && table.Head[1] == "現況確認" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	require.Less(t, idx+1, len(blocks))

	hint, ok := blocks[idx+1].(PageBreakHint)
	require.True(t, ok)
	assert.Equal(t, 250.0, hint.Threshold)
}

func TestAssemble_TableRowsFitColumns(t *testing.T) {
	for _, block := range Assemble(domain.Record{}) {
		table, ok := block.(Table)
		if !ok {
			continue
		}
		total := 0.0
		for _, w := range table.Widths {
			total += w
		}
		assert.LessOrEqual(t, total, pageWidth-2*marginLeft)
		if table.Head != nil {
			assert.Len(t, table.Head, len(table.Widths))
		}
		for _, row := range table.Rows {
			cols := 0
			for _, c := range row {
				cols += max(c.Span, 1)
			}
			assert.Equal(t, len(table.Widths), cols)
		}
	}
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "Acme Co_完整訪視報告.pdf", ReportFileName("Acme Co"))
	assert.Equal(t, "未命名_完整訪視報告.pdf", ReportFileName(""))
}
