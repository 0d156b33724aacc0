package service

import (
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/websocket"
)

// ChannelMessage carries one alert deep link (sms: or wa.me) to
// connected clients, which open it on the user's device.
type ChannelMessage struct {
	URI  string `json:"uri"`
	Mode string `json:"mode"` // "popup" or "navigate"
}

// HubLinkOpener delivers alert channels over the websocket feed. The
// popup-blocked fallback is handled client-side, so Open never fails
// here; the interface error path stays for other opener
// implementations.
type HubLinkOpener struct {
	hub *websocket.Hub
	log *logger.Logger
}

func NewHubLinkOpener(hub *websocket.Hub, log *logger.Logger) *HubLinkOpener {
	return &HubLinkOpener{hub: hub, log: log}
}

func (o *HubLinkOpener) Open(uri string) error {
	o.hub.Broadcast(websocket.TypeChannel, ChannelMessage{URI: uri, Mode: "popup"})
	return nil
}

func (o *HubLinkOpener) Navigate(uri string) {
	o.hub.Broadcast(websocket.TypeChannel, ChannelMessage{URI: uri, Mode: "navigate"})
}
