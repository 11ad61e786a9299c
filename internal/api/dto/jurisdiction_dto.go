package dto

import (
	"github.com/emmanuelfore/tarisa-sub001/internal/jurisdiction"
)

// NewResolveResponse maps a resolver result.
func NewResolveResponse(res jurisdiction.Result) ResolveResponse {
	resp := ResolveResponse{
		JurisdictionID: res.Ref(),
		Level:          res.Level,
		Approximate:    res.Approximate,
		Method:         string(res.Method),
		Chain:          make([]JurisdictionRef, 0, len(res.Chain)),
	}
	for _, n := range res.Chain {
		resp.Chain = append(resp.Chain, JurisdictionRef{ID: n.ID, Name: n.Name, Level: n.Level})
	}
	if res.Suburb != nil {
		resp.Suburb = &JurisdictionRef{ID: res.Suburb.ID, Name: res.Suburb.Name, Level: res.Suburb.Level}
	}
	return resp
}

// ReferenceSummary reports the loaded reference snapshot.
type ReferenceSummary struct {
	Jurisdictions int    `json:"jurisdictions"`
	Departments   int    `json:"departments"`
	LoadedAt      string `json:"loaded_at"`
}
