/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients, over REST and over the socket.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrInvalidPayload indicates that a socket event is missing one of its required fields.
	ErrInvalidPayload = 1010

	// ErrUnsupportedEvent indicates that the socket event type is unknown.
	ErrUnsupportedEvent = 1011
)

// 2xxx: Room and Content Business Logic Errors
const (
	// ErrRoomTypeInvalid indicates that an invalid room type was provided.
	ErrRoomTypeInvalid = 2101

	// ErrRoomNotFound indicates that the room does not exist.
	ErrRoomNotFound = 2103

	// ErrNotRoomAdmin indicates that the operation is reserved to room admins.
	ErrNotRoomAdmin = 2105

	// ErrNotRoomMember indicates that the acting user is not a member of the room.
	ErrNotRoomMember = 2106

	// ErrUserBanned indicates that the user is banned from the room.
	ErrUserBanned = 2107

	// ErrUserMuted indicates that the user is muted in the room and cannot send.
	ErrUserMuted = 2108

	// ErrNoMembersProvided indicates that a member mutation carried an empty list.
	ErrNoMembersProvided = 2109

	// ErrRoomNotGroup indicates a group-only mutation attempted on a 1:1 room.
	ErrRoomNotGroup = 2110

	// ErrRoomConflict indicates that concurrent updates kept colliding on the same room.
	ErrRoomConflict = 2111

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing identity or an operation attributed to another identity.
	ErrUnauthorized = 3005

	// ErrSessionClosed indicates that the session is unknown or already torn down.
	ErrSessionClosed = 3006

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = 3007
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreFailure indicates that the persistence layer rejected or failed a write.
	ErrStoreFailure = 5001
)
