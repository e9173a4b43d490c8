package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

var (
	ErrICEServer = errors.New("bad ice server")
)

// ParseICEServers builds the ICE server list handed to clients.
// A non-empty JSON list wins over the STUN/TURN url lists.
func ParseICEServers(iceJSON, stunURLs, turnURLs, turnUsername, turnCredential string) ([]webrtc.ICEServer, error) {
	if raw := strings.TrimSpace(iceJSON); raw != "" {
		return parseICEServersJSON(raw)
	}

	var servers []webrtc.ICEServer
	if urls := splitCSV(stunURLs); len(urls) > 0 {
		server := webrtc.ICEServer{URLs: urls}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("%w: stun: %w", ErrICEServer, err)
		}
		servers = append(servers, server)
	}
	if urls := splitCSV(turnURLs); len(urls) > 0 {
		server := webrtc.ICEServer{
			URLs:       urls,
			Username:   strings.TrimSpace(turnUsername),
			Credential: strings.TrimSpace(turnCredential),
		}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("%w: turn: %w", ErrICEServer, err)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

type iceServerJSON struct {
	URLs       urlList `json:"urls"`
	Username   string  `json:"username,omitempty"`
	Credential string  `json:"credential,omitempty"`
}

// urlList accepts both "urls": "stun:..." and "urls": ["stun:...", ...].
type urlList []string

func (u *urlList) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*u = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*u = many
	return nil
}

func parseICEServersJSON(raw string) ([]webrtc.ICEServer, error) {
	var list []iceServerJSON
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrICEServer, err)
	}

	servers := make([]webrtc.ICEServer, 0, len(list))
	for i, s := range list {
		server := webrtc.ICEServer{
			URLs:     splitCSV(strings.Join(s.URLs, ",")),
			Username: strings.TrimSpace(s.Username),
		}
		if cred := strings.TrimSpace(s.Credential); cred != "" {
			server.Credential = cred
		}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("%w: [%d]: %w", ErrICEServer, i, err)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func validateICEServer(server webrtc.ICEServer) error {
	if len(server.URLs) == 0 {
		return errors.New("missing urls")
	}

	turn := false
	for _, url := range server.URLs {
		switch {
		case strings.HasPrefix(url, "stun:"), strings.HasPrefix(url, "stuns:"):
		case strings.HasPrefix(url, "turn:"), strings.HasPrefix(url, "turns:"):
			turn = true
		default:
			return fmt.Errorf("unsupported url scheme: %q", url)
		}
	}
	if !turn {
		return nil
	}

	if server.Username == "" {
		return errors.New("turn urls require username")
	}
	if cred, _ := server.Credential.(string); cred == "" {
		return errors.New("turn urls require credential")
	}
	return nil
}
