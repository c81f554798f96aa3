package model

// ICEServer is one entry of the iceServers list embedded in outgoing offers
// and the retained "ready" announcement.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// SDPDescription is the {type, sdp} pair carried by offer/answer payloads.
type SDPDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidate is the candidate shape relayed verbatim between the bus and
// the media engine's HTTP control API.
type ICECandidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex int    `json:"sdpMLineIndex"`
}

// ReadyMessage is the retained offer-channel announcement published when
// the bridge comes up.
type ReadyMessage struct {
	Type       string      `json:"type"`
	From       string      `json:"from"`
	WallID     string      `json:"wallId"`
	ICEServers []ICEServer `json:"iceServers"`
}

// OfferMessage is the targeted offer sent to a joining viewer.
type OfferMessage struct {
	Type        string         `json:"type"`
	Description SDPDescription `json:"description"`
	ICEServers  []ICEServer    `json:"iceServers"`
	To          string         `json:"to"`
	From        string         `json:"from"`
}

// AnswerMessage is the inbound answer from a viewer.
type AnswerMessage struct {
	Description SDPDescription `json:"description"`
	To          string         `json:"to"`
	From        string         `json:"from"`
}

// CandidateMessage carries one ICE candidate in either direction.
type CandidateMessage struct {
	Candidate ICECandidate `json:"candidate"`
	To        string       `json:"to"`
	From      string       `json:"from"`
}

// JoinMessage announces a viewer wants to attach.
type JoinMessage struct {
	From string `json:"from"`
}

// LeaveMessage announces a viewer has disconnected.
type LeaveMessage struct {
	From string `json:"from"`
}
