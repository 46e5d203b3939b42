package filter

import (
	"net/url"
	"strings"
)

// Deep-link parameter names accepted on the landing URL.
const (
	ParamCountry  = "country"
	ParamPartners = "partners"
	ParamSponsors = "sponsors"
)

// HasDeepLink reports whether q carries any deep-link parameter.
func HasDeepLink(q url.Values) bool {
	return q.Has(ParamCountry) || q.Has(ParamPartners) || q.Has(ParamSponsors)
}

// FromDeepLink decodes the landing URL's pre-seeded selection. Values use
// underscores in place of spaces. A missing partners value means all types.
func FromDeepLink(q url.Values) Selection {
	return Selection{
		Country:         decodeParam(q.Get(ParamCountry)),
		PartnershipType: decodeParam(q.Get(ParamPartners)),
		Sponsor:         decodeParam(q.Get(ParamSponsors)),
	}.Normalize()
}

// StripDeepLink returns a copy of q without the deep-link parameters.
func StripDeepLink(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		switch k {
		case ParamCountry, ParamPartners, ParamSponsors:
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

func decodeParam(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, "_", " "))
}
