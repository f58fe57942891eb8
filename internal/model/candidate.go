package model

// Keys of the derived fields added to every enriched record.
const (
	KeyGeneratedEmail  = "generatedEmail"
	KeyEmailConfidence = "emailConfidence"
	KeyEmailPattern    = "emailPattern"
	KeyEmailReasoning  = "emailReasoning"
	KeyEmailCandidates = "emailCandidates"
)

// DerivedKeys lists the derived fields in output order.
var DerivedKeys = []string{
	KeyGeneratedEmail,
	KeyEmailConfidence,
	KeyEmailPattern,
	KeyEmailReasoning,
	KeyEmailCandidates,
}

// NoCandidateReasoning is the reasoning recorded when no address survives generation.
const NoCandidateReasoning = "No valid email could be generated"

// EmailCandidate is one rendered, syntax-valid address and its score.
type EmailCandidate struct {
	Email      string  `json:"email"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern"`
	Reasoning  string  `json:"reasoning"`
}

// EnrichedLead is a source record plus the email fields derived from it.
// EmailCandidates is ordered by confidence, highest first, and the flat
// fields mirror its first element.
type EnrichedLead struct {
	Source          Record
	GeneratedEmail  string
	EmailConfidence float64
	EmailPattern    string
	EmailReasoning  string
	EmailCandidates []EmailCandidate
}

// NoCandidate returns an enriched lead with empty email fields.
func NoCandidate(src Record, reasoning string) EnrichedLead {
	return EnrichedLead{
		Source:          src,
		EmailReasoning:  reasoning,
		EmailCandidates: []EmailCandidate{},
	}
}

// HasEmail reports whether an address was generated.
func (e EnrichedLead) HasEmail() bool {
	return e.GeneratedEmail != ""
}

// Record renders the output record: source fields in their original order,
// followed by the derived fields. Empty email and pattern render as null.
func (e EnrichedLead) Record() Record {
	r := e.Source.Clone()

	if e.GeneratedEmail != "" {
		r.Set(KeyGeneratedEmail, e.GeneratedEmail)
	} else {
		r.Set(KeyGeneratedEmail, nil)
	}
	r.Set(KeyEmailConfidence, e.EmailConfidence)
	if e.EmailPattern != "" {
		r.Set(KeyEmailPattern, e.EmailPattern)
	} else {
		r.Set(KeyEmailPattern, nil)
	}
	r.Set(KeyEmailReasoning, e.EmailReasoning)

	candidates := e.EmailCandidates
	if candidates == nil {
		candidates = []EmailCandidate{}
	}
	r.Set(KeyEmailCandidates, candidates)
	return r
}

// MarshalJSON encodes the output record.
func (e EnrichedLead) MarshalJSON() ([]byte, error) {
	return e.Record().MarshalJSON()
}
