package domain

import (
	"fmt"
	"strings"
	"time"
)

// Record is one site visit's checklist answers. Every section is a value, so a zero Record is
// fully traversable; Normalize fills the enumeration defaults the form starts with.
type Record struct {
	Identity `bson:",inline"`
	Admin    Admin    `json:"admin" bson:"admin"`
	Hazards  Hazards  `json:"hazards" bson:"hazards"`
	FirstAid FirstAid `json:"firstAid" bson:"firstAid"`
	Plans    Plans    `json:"plans" bson:"plans"`
	Health   Health   `json:"health" bson:"health"`
	Strategy Strategy `json:"strategy" bson:"strategy"`
}

// Identity holds the basic visit information at the top of the checklist.
type Identity struct {
	CompanyName          string           `json:"companyName" bson:"companyName"`
	VisitDate            string           `json:"visitDate" bson:"visitDate"`
	NurseName            string           `json:"nurseName" bson:"nurseName"`
	AccompanyingName     string           `json:"accompanyingName" bson:"accompanyingName"`
	AccompanyingRole     AccompanyingRole `json:"accompanyingRole" bson:"accompanyingRole"`
	AccompanyingRoleNote string           `json:"accompanyingRoleNote" bson:"accompanyingRoleNote"`
	EmpMale              string           `json:"empMale" bson:"empMale"`
	EmpFemale            string           `json:"empFemale" bson:"empFemale"`
	EmpTotal             string           `json:"empTotal" bson:"empTotal"`
	ShiftType            ShiftType        `json:"shiftType" bson:"shiftType"`
	ShiftNote            string           `json:"shiftNote" bson:"shiftNote"`
}

// Admin is part one: documents the employer should have prepared before the visit.
type Admin struct {
	HasAnnualPlan      AnnualPlanPresence `json:"hasAnnualPlan" bson:"hasAnnualPlan"`
	HasCheckupAnalysis Presence           `json:"hasCheckupAnalysis" bson:"hasCheckupAnalysis"`
	AbnormalCount      string             `json:"abnormalCount" bson:"abnormalCount"`
	AbnormalRate       string             `json:"abnormalRate" bson:"abnormalRate"`
	HasEnvMonitor      Presence           `json:"hasEnvMonitor" bson:"hasEnvMonitor"`
	EnvMonitorYear     string             `json:"envMonitorYear" bson:"envMonitorYear"`
	EnvMonitorItems    string             `json:"envMonitorItems" bson:"envMonitorItems"`
	HasSDS             Presence           `json:"hasSDS" bson:"hasSDS"`
	SDSList            []string           `json:"sdsList" bson:"sdsList"`
	HasEmpList         Presence           `json:"hasEmpList" bson:"hasEmpList"`
}

// Hazards is the on-site hazard inventory. Sub-fields of a category only carry meaning when
// the category flag is set.
type Hazards struct {
	Physical         bool   `json:"physical" bson:"physical"`
	PhysicalNote     string `json:"physicalNote" bson:"physicalNote"`
	PhysicalNoise    bool   `json:"physicalNoise" bson:"physicalNoise"`
	PhysicalPriority bool   `json:"physicalPriority" bson:"physicalPriority"`

	Chemical         bool `json:"chemical" bson:"chemical"`
	ChemicalSDS      bool `json:"chemicalSDS" bson:"chemicalSDS"`
	ChemicalVent     bool `json:"chemicalVent" bson:"chemicalVent"`
	ChemicalPriority bool `json:"chemicalPriority" bson:"chemicalPriority"`

	Ergo         bool   `json:"ergo" bson:"ergo"`
	ErgoNote     string `json:"ergoNote" bson:"ergoNote"`
	ErgoTool     bool   `json:"ergoTool" bson:"ergoTool"`
	ErgoPriority bool   `json:"ergoPriority" bson:"ergoPriority"`

	Bio         bool   `json:"bio" bson:"bio"`
	BioNote     string `json:"bioNote" bson:"bioNote"`
	BioPriority bool   `json:"bioPriority" bson:"bioPriority"`

	Special         bool   `json:"special" bson:"special"`
	SpecialNote     string `json:"specialNote" bson:"specialNote"`
	SpecialPriority bool   `json:"specialPriority" bson:"specialPriority"`
}

var noiseKeywords = []string{"噪音", "noise"}

// NoiseExposure reports a declared physical hazard that involves noise, either through the
// structured flag or a keyword in the free-text note.
func (h Hazards) NoiseExposure() bool {
	if !h.Physical {
		return false
	}
	if h.PhysicalNoise {
		return true
	}
	note := strings.ToLower(h.PhysicalNote)
	for _, kw := range noiseKeywords {
		if strings.Contains(note, kw) {
			return true
		}
	}
	return false
}

// FirstAid covers first-aid and emergency resources.
type FirstAid struct {
	Personnel   bool     `json:"personnel" bson:"personnel"`
	License     bool     `json:"license" bson:"license"`
	Drugs       bool     `json:"drugs" bson:"drugs"`
	AED         bool     `json:"aed" bson:"aed"`
	Location    bool     `json:"location" bson:"location"`
	NursingRoom Presence `json:"nursingRoom" bson:"nursingRoom"`
	Note        string   `json:"note" bson:"note"`
}

// PDCA tracks one statutory program through Plan/Do/Check/Act.
type PDCA struct {
	P        bool     `json:"p" bson:"p"`
	D        bool     `json:"d" bson:"d"`
	C        bool     `json:"c" bson:"c"`
	A        bool     `json:"a" bson:"a"`
	Priority Priority `json:"priority" bson:"priority"`
}

type Plans struct {
	Overwork PDCA   `json:"overwork" bson:"overwork"`
	Ergo     PDCA   `json:"ergo" bson:"ergo"`
	Violence PDCA   `json:"violence" bson:"violence"`
	Maternal PDCA   `json:"maternal" bson:"maternal"`
	Note     string `json:"note" bson:"note"`
}

// Get returns the tracker of program; unknown programs yield a zero tracker.
func (p Plans) Get(program Program) PDCA {
	switch program {
	case ProgramOverwork:
		return p.Overwork
	case ProgramErgo:
		return p.Ergo
	case ProgramViolence:
		return p.Violence
	case ProgramMaternal:
		return p.Maternal
	}
	return PDCA{}
}

func (p Plans) with(program Program, v PDCA) Plans {
	switch program {
	case ProgramOverwork:
		p.Overwork = v
	case ProgramErgo:
		p.Ergo = v
	case ProgramViolence:
		p.Violence = v
	case ProgramMaternal:
		p.Maternal = v
	}
	return p
}

// Health is part four: health-management status.
type Health struct {
	GeneralSave     bool           `json:"generalSave" bson:"generalSave"`
	GeneralAnalysis bool           `json:"generalAnalysis" bson:"generalAnalysis"`
	GeneralGrade    GradeState     `json:"generalGrade" bson:"generalGrade"`
	SpecialSave     bool           `json:"specialSave" bson:"specialSave"`
	SpecialLevel    bool           `json:"specialLevel" bson:"specialLevel"`
	HasLevel4       bool           `json:"hasLevel4" bson:"hasLevel4"`
	FitAssess       bool           `json:"fitAssess" bson:"fitAssess"`
	ReturnAssess    bool           `json:"returnAssess" bson:"returnAssess"`
	ReturnCases     string         `json:"returnCases" bson:"returnCases"`
	PromoLecture    bool           `json:"promoLecture" bson:"promoLecture"`
	PromoSport      bool           `json:"promoSport" bson:"promoSport"`
	PromoBasis      PromotionBasis `json:"promoBasis" bson:"promoBasis"`
}

// Strategy is part five: the consultant's annual service strategy.
type Strategy struct {
	Goal1          string `json:"goal1" bson:"goal1"`
	Goal2          string `json:"goal2" bson:"goal2"`
	Goal3          string `json:"goal3" bson:"goal3"`
	FreqMonth      string `json:"freqMonth" bson:"freqMonth"`
	FreqQuarter    string `json:"freqQuarter" bson:"freqQuarter"`
	NextDate       string `json:"nextDate" bson:"nextDate"`
	TodoConsultant string `json:"todoConsultant" bson:"todoConsultant"`
	TodoEnterprise string `json:"todoEnterprise" bson:"todoEnterprise"`
}

// NewRecord returns the blank checklist the form starts from.
func NewRecord(visitDate time.Time) Record {
	r := Record{}
	r.VisitDate = visitDate.Format("2006-01-02")
	r.Admin.SDSList = []string{}
	normalized, _ := r.Normalize()
	return normalized
}

// Normalize returns a copy with empty enumerations replaced by their defaults, or an error
// wrapping ErrInvalidField for values outside the allowed sets.
func (r Record) Normalize() (Record, error) {
	var err error
	out := r.clone()

	if out.AccompanyingRole, err = NewAccompanyingRole(string(r.AccompanyingRole)); err != nil {
		return Record{}, err
	}
	if out.ShiftType, err = NewShiftType(string(r.ShiftType)); err != nil {
		return Record{}, err
	}

	if out.Admin.HasAnnualPlan, err = NewAnnualPlanPresence(string(r.Admin.HasAnnualPlan)); err != nil {
		return Record{}, err
	}
	if out.Admin.HasCheckupAnalysis, err = NewPresence("hasCheckupAnalysis", string(r.Admin.HasCheckupAnalysis), false); err != nil {
		return Record{}, err
	}
	if out.Admin.HasEnvMonitor, err = NewPresence("hasEnvMonitor", string(r.Admin.HasEnvMonitor), true); err != nil {
		return Record{}, err
	}
	if out.Admin.HasSDS, err = NewPresence("hasSDS", string(r.Admin.HasSDS), true); err != nil {
		return Record{}, err
	}
	if out.Admin.HasEmpList, err = NewPresence("hasEmpList", string(r.Admin.HasEmpList), false); err != nil {
		return Record{}, err
	}
	if out.Admin.SDSList == nil {
		out.Admin.SDSList = []string{}
	}

	// nursingRoom starts unanswered on the form, so an empty value is kept as is.
	if r.FirstAid.NursingRoom.Answered() {
		if out.FirstAid.NursingRoom, err = NewPresence("nursingRoom", string(r.FirstAid.NursingRoom), false); err != nil {
			return Record{}, err
		}
	}

	for _, program := range Programs {
		tracker := out.Plans.Get(program)
		if tracker.Priority, err = NewPriority(string(tracker.Priority)); err != nil {
			return Record{}, fmt.Errorf("plans.%s: %w", program, err)
		}
		out.Plans = out.Plans.with(program, tracker)
	}

	if out.Health.GeneralGrade, err = NewGradeState(string(r.Health.GeneralGrade)); err != nil {
		return Record{}, err
	}
	if out.Health.PromoBasis, err = NewPromotionBasis(string(r.Health.PromoBasis)); err != nil {
		return Record{}, err
	}
	return out, nil
}

// Validate checks every enumeration of the record.
func (r Record) Validate() error {
	_, err := r.Normalize()
	return err
}

// ValidateForSave applies the persistence precondition on top of Validate.
func (r Record) ValidateForSave() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return ErrCompanyNameRequired
	}
	return r.Validate()
}

// AccompanyingDisplay renders "name (role)" the way the report prints it.
func (r Record) AccompanyingDisplay() string {
	if strings.TrimSpace(r.AccompanyingName) == "" {
		return ""
	}
	role := r.AccompanyingRole.Label()
	if r.AccompanyingRole == RoleOther && strings.TrimSpace(r.AccompanyingRoleNote) != "" {
		role = r.AccompanyingRoleNote
	}
	return fmt.Sprintf("%s (%s)", r.AccompanyingName, role)
}

func (r Record) clone() Record {
	out := r
	if r.Admin.SDSList != nil {
		out.Admin.SDSList = append([]string{}, r.Admin.SDSList...)
	}
	return out
}
