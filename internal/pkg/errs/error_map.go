/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, socket error events and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrInvalidPayload:        {Code: ErrInvalidPayload, Message: "Missing required field: %s.", Status: http.StatusBadRequest},
	ErrUnsupportedEvent:      {Code: ErrUnsupportedEvent, Message: "Unsupported event type: %s.", Status: http.StatusBadRequest},

	// 2xxx: Room and Content Business Logic Errors
	ErrRoomTypeInvalid:       {Code: ErrRoomTypeInvalid, Message: "Invalid chat type.", Status: http.StatusBadRequest},
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Chat room not found.", Status: http.StatusNotFound},
	ErrNotRoomAdmin:          {Code: ErrNotRoomAdmin, Message: "Access denied. Admins only.", Status: http.StatusForbidden},
	ErrNotRoomMember:         {Code: ErrNotRoomMember, Message: "You are not a member of this chat room.", Status: http.StatusForbidden},
	ErrUserBanned:            {Code: ErrUserBanned, Message: "You are banned from this chat room.", Status: http.StatusForbidden},
	ErrUserMuted:             {Code: ErrUserMuted, Message: "You are muted in this chat room.", Status: http.StatusForbidden},
	ErrNoMembersProvided:     {Code: ErrNoMembersProvided, Message: "No members provided.", Status: http.StatusBadRequest},
	ErrRoomNotGroup:          {Code: ErrRoomNotGroup, Message: "This operation is only available for group chats.", Status: http.StatusBadRequest},
	ErrRoomConflict:          {Code: ErrRoomConflict, Message: "Chat room was modified concurrently. Please retry.", Status: http.StatusConflict},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:  {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionClosed: {Code: ErrSessionClosed, Message: "Session is closed.", Status: http.StatusGone},
	ErrUserNotFound:  {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown:      {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreFailure: {Code: ErrStoreFailure, Message: "Message could not be saved. Please try again.", Status: http.StatusInternalServerError},
}
