package domain

import "github.com/google/uuid"

// taskRule appends one task when applies holds. Rules run in slice order, which is also the
// order of the Gantt rows: routine, program build-out, hazards, annual wrap-up.
type taskRule struct {
	category Category
	name     string
	months   Months
	applies  func(Record) bool
}

func always(Record) bool { return true }

func planMissing(program Program) func(Record) bool {
	return func(r Record) bool { return !r.Plans.Get(program).P }
}

var taskRules = []taskRule{
	{CategoryRoutine, "護理師臨場訪視服務", AllMonths(), always},

	{CategoryProgram, "異常工作負荷(過勞)預防計畫建置", NewMonths(1, 2, 3), planMissing(ProgramOverwork)},
	{CategoryProgram, "人因性危害預防計畫建置", NewMonths(4, 5, 6), planMissing(ProgramErgo)},
	{CategoryProgram, "不法侵害預防計畫建置", NewMonths(7, 8, 9), planMissing(ProgramViolence)},
	{CategoryProgram, "母性健康保護計畫建置", NewMonths(1, 4, 7, 10), planMissing(ProgramMaternal)},

	{CategoryHazard, "噪音作業聽力保護計畫與特殊健檢追蹤", NewMonths(5, 6), func(r Record) bool { return r.Hazards.NoiseExposure() }},
	{CategoryHazard, "化學品分級管理 (CCB) 與 SDS 更新檢核", NewMonths(8, 9), func(r Record) bool { return r.Hazards.Chemical }},

	{CategoryAnnualReview, "年度成效評估與次年度計畫規劃", NewMonths(12), always},
}

// Derive maps a record to its ordered follow-up tasks. It never fails: anything missing from
// the record reads as false, which means "not in place". Each call allocates new task IDs.
func Derive(r Record) []Task {
	tasks := make([]Task, 0, len(taskRules))
	for _, rule := range taskRules {
		if !rule.applies(r) {
			continue
		}
		tasks = append(tasks, Task{
			ID:       uuid.NewString(),
			Category: rule.category,
			Name:     rule.name,
			Months:   append(Months{}, rule.months...),
			Status:   TaskPending,
			Origin:   TaskOriginAuto,
		})
	}
	return tasks
}
