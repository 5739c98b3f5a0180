package oracle

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ParseResponse defensively parses the oracle's raw text: it locates the
// first balanced {...} block, repairs common LLM JSON defects, unmarshals,
// and default-fills every expected field. The oracle's output is never
// trusted to be complete.
func ParseResponse(raw string) (*model.OracleExtraction, error) {
	block, ok := firstJSONObject(raw)
	if !ok {
		return nil, eris.New("oracle: no JSON object in response")
	}

	var extraction model.OracleExtraction
	if err := json.Unmarshal([]byte(block), &extraction); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(block)
		if repairErr != nil {
			return nil, eris.Wrap(err, "oracle: unmarshal response")
		}
		if err := json.Unmarshal([]byte(repaired), &extraction); err != nil {
			return nil, eris.Wrap(err, "oracle: unmarshal repaired response")
		}
	}

	fillDefaults(&extraction)
	return &extraction, nil
}

// firstJSONObject scans for the first balanced top-level {...} block,
// ignoring braces inside JSON strings.
func firstJSONObject(s string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// fillDefaults guarantees no nil slices survive parsing so downstream code
// can range freely.
func fillDefaults(e *model.OracleExtraction) {
	if e.Business.Services == nil {
		e.Business.Services = []string{}
	}
	if e.Business.TargetCustomers == nil {
		e.Business.TargetCustomers = []string{}
	}
	if e.People.KeyPeople == nil {
		e.People.KeyPeople = []string{}
	}
	if e.People.Emails == nil {
		e.People.Emails = []string{}
	}
	if e.Technology.Platforms == nil {
		e.Technology.Platforms = []string{}
	}
	if e.Technology.Analytics == nil {
		e.Technology.Analytics = []string{}
	}
	if e.Market.Competitors == nil {
		e.Market.Competitors = []string{}
	}
	if e.Market.Differentiators == nil {
		e.Market.Differentiators = []string{}
	}
}
