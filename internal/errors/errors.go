package errors

import (
	"github.com/ac8628026/Chess-Backend/internal/logger"
	"github.com/ac8628026/Chess-Backend/pkg/models"
)

// Boundary error codes. The relay core itself has no error notifications
// (full rooms and unknown rooms are defined outcomes, not errors); these
// cover only frames rejected before they reach the hub.
const (
	ErrorInvalidMessage   = "ERROR_INVALID_MESSAGE"
	ErrorInvalidPayload   = "ERROR_INVALID_PAYLOAD"
	ErrorUnknownEventType = "ERROR_UNKNOWN_EVENT_TYPE"
)

// SendError sends a structured error envelope to the client
func SendError(channel chan []byte, code, message string, clientID string) {
	msgBytes, err := models.Marshal(models.EventError, models.ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err != nil {
		logger.Error("Failed to marshal error message", logger.Fields{
			"error":    err.Error(),
			"code":     code,
			"clientID": clientID,
		})
		return
	}

	logger.Warn(message, logger.Fields{
		"code":     code,
		"clientID": clientID,
	})

	select {
	case channel <- msgBytes:
	default:
		// client gone, nothing to report to
	}
}

// InvalidMessage rejects a frame that is not a well-formed envelope
func InvalidMessage(channel chan []byte, clientID string) {
	SendError(channel, ErrorInvalidMessage, "Formato de mensaje inválido", clientID)
}

// InvalidPayload rejects an envelope whose payload is missing required fields
func InvalidPayload(channel chan []byte, context string, clientID string) {
	SendError(channel, ErrorInvalidPayload, "Datos inválidos: "+context, clientID)
}

// UnknownEventType rejects an envelope with an unrecognized event name
func UnknownEventType(channel chan []byte, eventType string, clientID string) {
	SendError(channel, ErrorUnknownEventType, "Tipo de evento desconocido: "+eventType, clientID)
}
