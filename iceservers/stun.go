// Package iceservers builds the ICE server list handed to each peer
// connection.
package iceservers

import (
	"github.com/coursecast/coursecast/env"
	"github.com/pion/webrtc/v3"
)

// Default returns one STUN server per URL in env.STUNServerURLs: Google's
// public STUN server when CC_STUN_SERVER_URLS is unset, and none (nil) when
// it is "false". No TURN servers are included.
func Default() (servers []webrtc.ICEServer) {
	for _, url := range env.STUNServerURLs {
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	return
}
