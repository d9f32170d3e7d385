package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FabidKey is the settings key holding the my.fabtotum.com link.
const FabidKey = "fabid"

// FabidLink is the my.fabtotum.com identity linked to a local account.
// The password is kept in plaintext because the reload daemon needs it to log
// in on the printer's behalf.
type FabidLink struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// Settings is the per-user settings blob. The FABID link is typed; every other
// key is carried through untouched.
type Settings struct {
	Fabid *FabidLink
	Extra map[string]json.RawMessage
}

// DecodeSettings parses the stored settings text. Empty or null text yields
// empty settings.
func DecodeSettings(raw string) (Settings, error) {
	var s Settings
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return s, nil
	}
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Encode renders the settings as stored text.
func (s Settings) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(b), nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+1)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Fabid != nil {
		b, err := json.Marshal(s.Fabid)
		if err != nil {
			return nil, err
		}
		out[FabidKey] = b
	}
	return json.Marshal(out)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	s.Fabid = nil
	s.Extra = nil

	if raw, ok := all[FabidKey]; ok {
		delete(all, FabidKey)
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			var link FabidLink
			if err := json.Unmarshal(raw, &link); err != nil {
				return fmt.Errorf("fabid: %w", err)
			}
			s.Fabid = &link
		}
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// Clone deep-copies the settings.
func (s Settings) Clone() Settings {
	var c Settings
	if s.Fabid != nil {
		link := *s.Fabid
		c.Fabid = &link
	}
	if s.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}
