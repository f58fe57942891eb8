// Package pattern holds the email local-part templates, the company archetypes
// that weight them, and the industry lookup that selects an archetype.
package pattern

import "strings"

// ID identifies a local-part template.
type ID string

const (
	FirstName      ID = "firstname"
	LastName       ID = "lastname"
	FirstDotLast   ID = "firstname.lastname"
	FirstUnderLast ID = "firstname_lastname"
	FirstLast      ID = "firstnamelastname"
	InitialDotLast ID = "f.lastname"
	LastDotFirst   ID = "lastname.firstname"
	InitialLast    ID = "flastname"
)

// IDs is the fixed template set every archetype weights.
var IDs = []ID{
	FirstName,
	LastName,
	FirstDotLast,
	FirstUnderLast,
	FirstLast,
	InitialDotLast,
	LastDotFirst,
	InitialLast,
}

// Known reports whether id is one of the fixed templates.
func Known(id ID) bool {
	for _, k := range IDs {
		if id == k {
			return true
		}
	}
	return false
}

// Archetype is a coarse company category used to pick pattern weights.
type Archetype string

const (
	Tech        Archetype = "tech"
	Fintech     Archetype = "fintech"
	Finance     Archetype = "finance"
	Consulting  Archetype = "consulting"
	Traditional Archetype = "traditional"
	Default     Archetype = "default"
)

// Archetypes is the closed archetype set.
var Archetypes = []Archetype{Tech, Fintech, Finance, Consulting, Traditional, Default}

// ValidArchetype reports whether a belongs to the closed set.
func ValidArchetype(a Archetype) bool {
	for _, k := range Archetypes {
		if a == k {
			return true
		}
	}
	return false
}

// Render composes an address from normalized name tokens. It returns "" when
// the template needs a token that is missing. The full-name templates fall
// back to the bare first name when there is no last name.
func Render(first, last, domain string, id ID) string {
	if first == "" || domain == "" {
		return ""
	}

	var local string
	switch id {
	case FirstName:
		local = first
	case LastName:
		local = last
	case FirstDotLast:
		local = joinOrFirst(first, ".", last)
	case FirstUnderLast:
		local = joinOrFirst(first, "_", last)
	case FirstLast:
		local = joinOrFirst(first, "", last)
	case InitialDotLast:
		if last != "" {
			local = first[:1] + "." + last
		}
	case LastDotFirst:
		if last != "" {
			local = last + "." + first
		}
	case InitialLast:
		if last != "" {
			local = first[:1] + last
		}
	}

	if local == "" {
		return ""
	}
	return local + "@" + domain
}

func joinOrFirst(first, sep, last string) string {
	if last == "" {
		return first
	}
	return strings.Join([]string{first, last}, sep)
}
