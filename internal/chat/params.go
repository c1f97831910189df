package chat

// Defaults are the process-wide fallbacks for absent Params fields.
type Defaults struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// Resolve fills every absent field of p from d. A MaxNewTokens below 1 is
// treated as absent.
func (d Defaults) Resolve(p Params) Resolved {
	r := Resolved{
		MaxNewTokens: d.MaxNewTokens,
		Temperature:  d.Temperature,
		TopP:         d.TopP,
	}
	if p.MaxNewTokens != nil && *p.MaxNewTokens >= 1 {
		r.MaxNewTokens = *p.MaxNewTokens
	}
	if p.Temperature != nil {
		r.Temperature = *p.Temperature
	}
	if p.TopP != nil {
		r.TopP = *p.TopP
	}
	if len(p.Stop) > 0 {
		r.Stop = append([]string(nil), p.Stop...)
	} else {
		r.Stop = []string{}
	}
	return r
}
