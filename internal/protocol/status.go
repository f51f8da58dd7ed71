package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of one successful probe.
// It is built in one step once the status document, the probed target
// and the measured latency are all known.
type Status struct {
	Description Description   `json:"description"`
	Players     *Players      `json:"players,omitempty"`
	Version     *VersionInfo  `json:"version,omitempty"`
	Favicon     string        `json:"favicon,omitempty"`
	ModInfo     *ModInfo      `json:"modinfo,omitempty"`
	Target      Target        `json:"-"`
	Latency     time.Duration `json:"-"`
}

// Description holds the flattened server message of the day.
type Description struct {
	Text string `json:"text"`
}

// Players summarises the player count and an optional sample of names.
type Players struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

// PlayerSample is one entry of the player sample. ID is always hyphenated.
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// VersionInfo is the server's version label and protocol number.
type VersionInfo struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// ModInfo is the Forge mod list some modded servers attach.
type ModInfo struct {
	Type    string `json:"type"`
	ModList []Mod  `json:"modList"`
}

// Mod is one entry of ModInfo.ModList.
type Mod struct {
	ID      string `json:"modid"`
	Version string `json:"version"`
}

// Address returns the endpoint that was actually probed.
func (s *Status) Address() string {
	return s.Target.Addr()
}

// NormalizeEnvelope rewrites the description of a raw status document into
// the single-text shape Status expects.
//
// A plain string description becomes {"text": <string>}. An object description
// carrying an "extra" array gets its "text" replaced by the compact JSON of that
// array, matching what the legacy client produced. Any other shape is returned
// unchanged.
func NormalizeEnvelope(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Err: err}
	}

	desc, ok := doc["description"]
	if !ok {
		return raw, nil
	}

	desc = bytes.TrimSpace(desc)
	if len(desc) == 0 {
		return raw, nil
	}

	var rewritten []byte
	switch desc[0] {
	case '"':
		var text string
		if err := json.Unmarshal(desc, &text); err != nil {
			return nil, &DecodeError{Err: err}
		}
		rewritten, _ = json.Marshal(Description{Text: text})

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(desc, &obj); err != nil {
			return nil, &DecodeError{Err: err}
		}

		extra := bytes.TrimSpace(obj["extra"])
		if len(extra) == 0 || extra[0] != '[' {
			return raw, nil
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, extra); err != nil {
			return nil, &DecodeError{Err: err}
		}
		text, _ := json.Marshal(compact.String())
		obj["text"] = text

		var err error
		if rewritten, err = json.Marshal(obj); err != nil {
			return nil, &DecodeError{Err: err}
		}

	default:
		return raw, nil
	}

	doc["description"] = rewritten
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return out, nil
}

// DecodeStatus normalizes raw and builds the Status for target.
func DecodeStatus(raw []byte, target Target, latency time.Duration) (*Status, error) {
	normalized, err := NormalizeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	var s Status
	if err := json.Unmarshal(normalized, &s); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if s.Players != nil {
		for i := range s.Players.Sample {
			id, err := NormalizeUUID(s.Players.Sample[i].ID)
			if err != nil {
				return nil, &DecodeError{Err: fmt.Errorf("player %q: %w", s.Players.Sample[i].Name, err)}
			}
			s.Players.Sample[i].ID = id
		}
	}

	s.Target = target
	s.Latency = latency

	return &s, nil
}
