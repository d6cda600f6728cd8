package instance

import "os"

// GetID names the running process for logs: the Heroku dyno when present,
// then the container hostname.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
