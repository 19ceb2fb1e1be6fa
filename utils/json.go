package utils

import (
	"encoding/json"
)

// MarshalToJSON renders activity details for the activity_log.details column.
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}
