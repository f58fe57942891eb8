package model

import (
	"github.com/mitchellh/mapstructure"
	"github.com/rotisserie/eris"
)

// Input keys recognized on a lead record. Any other key is passed through.
const (
	KeyFirstName       = "firstName"
	KeyLastName        = "lastName"
	KeyCompanyDomain   = "companyDomain"
	KeyCompanyIndustry = "companyIndustry"
	KeyCompanySize     = "companySize"
)

// CompanySize is a headcount bracket such as "51-200".
type CompanySize string

const (
	CompanySize1To10     CompanySize = "1-10"
	CompanySize11To50    CompanySize = "11-50"
	CompanySize51To200   CompanySize = "51-200"
	CompanySize201To500  CompanySize = "201-500"
	CompanySize501To1000 CompanySize = "501-1000"
	CompanySize1000Plus  CompanySize = "1000+"
)

// CompanySizes lists the recognized brackets, smallest first.
var CompanySizes = []CompanySize{
	CompanySize1To10,
	CompanySize11To50,
	CompanySize51To200,
	CompanySize201To500,
	CompanySize501To1000,
	CompanySize1000Plus,
}

// Valid reports whether s is one of the recognized brackets.
func (s CompanySize) Valid() bool {
	for _, c := range CompanySizes {
		if s == c {
			return true
		}
	}
	return false
}

// Lead holds the typed attributes the generator works from.
type Lead struct {
	FirstName       string      `json:"firstName" mapstructure:"firstName"`
	LastName        string      `json:"lastName,omitempty" mapstructure:"lastName"`
	CompanyDomain   string      `json:"companyDomain" mapstructure:"companyDomain"`
	CompanyIndustry string      `json:"companyIndustry,omitempty" mapstructure:"companyIndustry"`
	CompanySize     CompanySize `json:"companySize,omitempty" mapstructure:"companySize"`
}

// LeadFromRecord decodes the typed lead attributes from an open record.
// Missing or null fields decode to empty strings; a field of the wrong type
// (for example a numeric companySize) is an error.
func LeadFromRecord(r Record) (Lead, error) {
	var lead Lead
	if err := mapstructure.Decode(r.Map(), &lead); err != nil {
		return Lead{}, eris.Wrap(err, "lead: decode record")
	}
	return lead, nil
}

// Record converts the lead back into an open record, omitting empty fields.
func (l Lead) Record() Record {
	r := NewRecord()
	r.Set(KeyFirstName, l.FirstName)
	if l.LastName != "" {
		r.Set(KeyLastName, l.LastName)
	}
	r.Set(KeyCompanyDomain, l.CompanyDomain)
	if l.CompanyIndustry != "" {
		r.Set(KeyCompanyIndustry, l.CompanyIndustry)
	}
	if l.CompanySize != "" {
		r.Set(KeyCompanySize, string(l.CompanySize))
	}
	return r
}
