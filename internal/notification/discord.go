package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skyterra/crop-pipeline/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

func SendDiscordErrorNotification(errorMessage string) error {
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 Pipeline Error",
				Description: fmt.Sprintf("A crop pipeline run failed: %s", errorMessage),
				Color:       16711680, // Red color
			},
		},
	}
	return post(properties.DiscordErrorNotificationUrl(), message)
}

func SendDiscordSuccessNotification(successMessage string) error {
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "✅ Pipeline Finished",
				Description: successMessage,
				Color:       65280, // Green color
			},
		},
	}
	return post(properties.DiscordSuccessNotificationUrl(), message)
}

func post(webhookURL string, message DiscordMessage) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
