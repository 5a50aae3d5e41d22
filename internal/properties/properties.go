package properties

import (
	"os"
	"strconv"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// EarthdataToken is the NASA Earthdata bearer token used to authenticate
// granule downloads.
func EarthdataToken() string {
	return os.Getenv("EARTHDATA_TOKEN")
}

// CMRBaseURL overrides the default CMR search endpoint. Set by tests and
// by deployments behind a mirror.
func CMRBaseURL() string {
	return os.Getenv("CMR_BASE_URL")
}

func DefaultMaxResults() int {
	v, err := strconv.Atoi(os.Getenv("DEFAULT_MAX_RESULTS"))
	if err != nil || v <= 0 {
		return 50
	}
	return v
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}
func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
