package domain

import "sort"

// Category groups follow-up tasks on the annual plan.
type Category string

const (
	CategoryRoutine      Category = "例行服務"
	CategoryProgram      Category = "重點計畫"
	CategoryHazard       Category = "危害管理"
	CategoryAnnualReview Category = "年度評估"
)

type TaskStatus string

const TaskPending TaskStatus = "pending"

// TaskOrigin tells derived tasks apart from manually entered ones.
type TaskOrigin string

const TaskOriginAuto TaskOrigin = "auto"

// Months is an ascending set of calendar months (1..12).
type Months []int

// NewMonths sorts, de-duplicates and drops anything outside 1..12.
func NewMonths(values ...int) Months {
	seen := make(map[int]struct{}, len(values))
	out := make(Months, 0, len(values))
	for _, m := range values {
		if m < 1 || m > 12 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// AllMonths spans the whole calendar year.
func AllMonths() Months {
	return NewMonths(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
}

func (m Months) Contains(month int) bool {
	for _, v := range m {
		if v == month {
			return true
		}
	}
	return false
}

// Task is a derived follow-up item on the annual plan.
type Task struct {
	ID       string     `json:"id" bson:"id"`
	Category Category   `json:"category" bson:"category"`
	Name     string     `json:"name" bson:"name"`
	Months   Months     `json:"schedule" bson:"schedule"`
	Status   TaskStatus `json:"status" bson:"status"`
	Origin   TaskOrigin `json:"origin" bson:"origin"`
}
