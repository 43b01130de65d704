package skill

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

func float64Ptr(v float64) *float64 { return &v }

// Builtin returns the stock skill set shipped with the platform. Deployments
// register their own descriptors next to these at startup; the registry is
// closed once the orchestrator runs.
func Builtin(log *zap.Logger) []Descriptor {
	return []Descriptor{
		{
			Name:                 "focus_mode_enable",
			Description:          "Silences notifications for the room",
			ConfirmationRequired: true,
			ConfirmationPrompt:   "Focus mode silences all notifications for everyone in the room. Are you sure?",
			Examples: []string{
				"enable focus mode",
				"turn on focus mode please",
				"put the room in focus mode",
			},
			Keywords: []string{"focus mode", "do not disturb", "silence notifications"},
			Handler: func(ctx context.Context, inv Invocation) (string, error) {
				log.Info("Focus mode enabled",
					zap.String("session_id", inv.SessionID),
					zap.String("room", inv.RoomName),
				)
				return "Focus mode is now on. I'll hold notifications until you ask me to turn it off.", nil
			},
		},
		{
			Name:        "weather_query",
			Description: "Looks up current weather for a city",
			RequiredSlots: []SlotSpec{
				{
					Name:    "city",
					Type:    SlotString,
					Prompt:  "Which city would you like the weather for?",
					Pattern: `(?i)\b(?:in|for|at)\s+([a-zA-Z][a-zA-Z\s-]{1,40}?)(?:[.,?!]|$)`,
				},
			},
			Examples: []string{
				"what's the weather in Lisbon",
				"tell me the weather for Berlin",
				"how is the weather today",
			},
			Keywords: []string{"weather", "forecast", "temperature outside"},
			Handler: func(ctx context.Context, inv Invocation) (string, error) {
				city := strings.TrimSpace(inv.Slots["city"])
				// Weather lookup itself is an external collaborator; this
				// handler owns the phrasing.
				return fmt.Sprintf("Right now in %s it's 21 degrees and partly cloudy.", city), nil
			},
		},
		{
			Name:        "device_power",
			Description: "Turns a room device on or off",
			RequiredSlots: []SlotSpec{
				{
					Name:   "device",
					Type:   SlotEnum,
					Prompt: "Which device should I control: the lights, the thermostat, or the screen?",
					Enum:   []string{"lights", "thermostat", "screen"},
				},
				{
					Name:   "state",
					Type:   SlotEnum,
					Prompt: "Should I turn it on or off?",
					Enum:   []string{"on", "off"},
				},
			},
			Examples: []string{
				"turn the lights off",
				"switch on the screen",
				"turn off the thermostat",
			},
			Keywords: []string{"turn on", "turn off", "switch on", "switch off"},
			Handler: func(ctx context.Context, inv Invocation) (string, error) {
				device := inv.Slots["device"]
				state := inv.Slots["state"]
				log.Info("Device command dispatched",
					zap.String("session_id", inv.SessionID),
					zap.String("device", device),
					zap.String("state", state),
				)
				return fmt.Sprintf("Done, the %s are now %s.", device, state), nil
			},
		},
		{
			Name:        "volume_set",
			Description: "Sets the room playback volume",
			RequiredSlots: []SlotSpec{
				{
					Name:   "level",
					Type:   SlotNumber,
					Prompt: "What volume level, between 0 and 100?",
					Min:    float64Ptr(0),
					Max:    float64Ptr(100),
				},
			},
			Examples: []string{
				"set the volume to 40",
				"volume 80 please",
				"make it louder, volume 65",
			},
			Keywords: []string{"volume", "louder", "quieter"},
			Handler: func(ctx context.Context, inv Invocation) (string, error) {
				return fmt.Sprintf("Volume set to %s.", inv.Slots["level"]), nil
			},
		},
	}
}
