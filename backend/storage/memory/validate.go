package memory

import (
	"errors"
	"fmt"

	"github.com/adwski/signal-relay/backend/model"
	"github.com/go-playground/validator/v10"
)

const (
	MaxRoomIDLength      = 50
	MaxDisplayNameLength = 30
)

var validate = validator.New()

type joinInput struct {
	ConnectionID string `validate:"required"`
	RoomID       string `validate:"required,max=50"`
	DisplayName  string `validate:"required,max=30"`
}

var fieldLabels = map[string]string{
	"ConnectionID": "connection id",
	"RoomID":       "room id",
	"DisplayName":  "display name",
}

func validateJoin(connID, roomID, displayName string) error {
	err := validate.Struct(joinInput{
		ConnectionID: connID,
		RoomID:       roomID,
		DisplayName:  displayName,
	})
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Join(model.ErrInvalidArgument, err)
	}
	fe := fieldErrs[0]
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", model.ErrInvalidArgument, label)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", model.ErrInvalidArgument, label, fe.Param())
	}
	return fmt.Errorf("%w: %s is invalid", model.ErrInvalidArgument, label)
}
