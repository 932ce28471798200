// Package media owns the opaque encrypted transport under the negotiation
// coordinator: building the pion peer connection, adapting it to the
// coordinator's interface, and the control-channel protocol.
package media

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/sanusharma-ui/chat/internal/config"
)

// NewPeerConnection builds a peer connection from client configuration.
// The server never sees media bytes; everything here stays peer-to-peer.
func NewPeerConnection(cfg *config.Config) (*pion.PeerConnection, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.STUNServers()}}

	turnServers := cfg.TURNServers()
	if turnServers != nil {
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   cfg.TURNUser,
			Credential: cfg.TURNPass,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && cfg.ForceRelay {
		policy = pion.ICETransportPolicyRelay
	}

	return pion.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
}

// NewControlChannel opens the ordered in-call control channel. Creating it
// marks the local description dirty and kicks off the first negotiation.
func NewControlChannel(pc *pion.PeerConnection) (*pion.DataChannel, error) {
	ordered := true
	return pc.CreateDataChannel("control", &pion.DataChannelInit{
		Ordered: &ordered,
	})
}
