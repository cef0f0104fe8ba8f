package domain

import "fmt"

// The With* functions replace one section and return a new Record. The receiver is never
// modified and the result never shares slices with it.

func (r Record) WithIdentity(identity Identity) Record {
	out := r.clone()
	out.Identity = identity
	return out
}

func (r Record) WithAdmin(admin Admin) Record {
	out := r.clone()
	out.Admin = admin
	if admin.SDSList != nil {
		out.Admin.SDSList = append([]string{}, admin.SDSList...)
	}
	return out
}

func (r Record) WithHazards(hazards Hazards) Record {
	out := r.clone()
	out.Hazards = hazards
	return out
}

func (r Record) WithFirstAid(firstAid FirstAid) Record {
	out := r.clone()
	out.FirstAid = firstAid
	return out
}

// WithPlan replaces the tracker of a single statutory program.
func (r Record) WithPlan(program Program, tracker PDCA) Record {
	out := r.clone()
	out.Plans = out.Plans.with(program, tracker)
	return out
}

func (r Record) WithPlanNote(note string) Record {
	out := r.clone()
	out.Plans.Note = note
	return out
}

func (r Record) WithHealth(health Health) Record {
	out := r.clone()
	out.Health = health
	return out
}

func (r Record) WithStrategy(strategy Strategy) Record {
	out := r.clone()
	out.Strategy = strategy
	return out
}

// WithSDSAdded appends a chemical name to the safety-data-sheet list.
func (r Record) WithSDSAdded(name string) Record {
	out := r.clone()
	out.Admin.SDSList = append(out.Admin.SDSList, name)
	return out
}

func (r Record) WithSDSUpdated(index int, name string) (Record, error) {
	if index < 0 || index >= len(r.Admin.SDSList) {
		return Record{}, fmt.Errorf("%w: sdsList index %d out of range", ErrInvalidField, index)
	}
	out := r.clone()
	out.Admin.SDSList[index] = name
	return out, nil
}

func (r Record) WithSDSRemoved(index int) (Record, error) {
	if index < 0 || index >= len(r.Admin.SDSList) {
		return Record{}, fmt.Errorf("%w: sdsList index %d out of range", ErrInvalidField, index)
	}
	out := r.clone()
	list := make([]string, 0, len(r.Admin.SDSList)-1)
	list = append(list, r.Admin.SDSList[:index]...)
	out.Admin.SDSList = append(list, r.Admin.SDSList[index+1:]...)
	return out, nil
}
