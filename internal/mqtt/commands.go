package mqtt

import "fmt"

type CommandType string

const (
	// CommandVoiceControl enables or disables on-device voice detection,
	// e.g. after the user flips the setting or permission was denied.
	CommandVoiceControl CommandType = "voice_control"
	// CommandTrackingControl toggles location tracking pings.
	CommandTrackingControl CommandType = "tracking_control"
	// CommandSessionSync tells a device to refetch the alert session.
	CommandSessionSync CommandType = "session_sync"
)

type Command struct {
	Type    CommandType            `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// BroadcastCommand sends a command to every listening device. The fleet
// acts as one logical client, so there is no per-device command path.
func (c *Client) BroadcastCommand(cmd Command) error {
	topic := "safeher/devices/broadcast/cmd"

	c.log.Warn("Broadcasting command to all devices: %s", cmd.Type)

	if err := c.PublishJSON(topic, cmd); err != nil {
		return fmt.Errorf("failed to broadcast command: %w", err)
	}
	return nil
}
